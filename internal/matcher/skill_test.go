package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkillMatcher_EmptyRequired(t *testing.T) {
	m := NewSkillMatcher()

	// 无必备技能要求时无论候选人技能如何均为满分
	result := m.Match([]string{"Go", "Redis"}, nil, nil, nil)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 1.0, result.MatchRate)
	assert.Empty(t, result.MatchedRequired)
	assert.Empty(t, result.MissingRequired)
	assert.Empty(t, result.CriticalMissing)

	result = m.Match(nil, []string{}, []string{"Docker"}, nil)
	assert.Equal(t, 1.0, result.Score)
}

func TestSkillMatcher_CriticalPenalty(t *testing.T) {
	m := NewSkillMatcher()

	// 覆盖率 1/3，缺失1项关键技能: clamp(0.333-0.15, 0, 1) ≈ 0.18
	result := m.Match(
		[]string{"Python", "Docker"},
		[]string{"Python", "FastAPI", "PostgreSQL"},
		nil,
		[]string{"FastAPI"},
	)
	assert.Equal(t, 0.18, result.Score)
	assert.Equal(t, 0.33, result.MatchRate)
	assert.Equal(t, []string{"Python"}, result.MatchedRequired)
	assert.Equal(t, []string{"FastAPI", "PostgreSQL"}, result.MissingRequired)
	assert.Equal(t, []string{"FastAPI"}, result.CriticalMissing)
}

func TestSkillMatcher_PreferredBonus(t *testing.T) {
	m := NewSkillMatcher()

	// 覆盖率 1/2=0.5，命中2项加分技能: 0.5+0.10=0.60
	result := m.Match(
		[]string{"Go", "Docker", "Kubernetes"},
		[]string{"Go", "Rust"},
		[]string{"Docker", "Kubernetes"},
		nil,
	)
	assert.Equal(t, 0.6, result.Score)
	assert.Equal(t, []string{"Docker", "Kubernetes"}, result.MatchedPreferred)
	assert.Empty(t, result.MissingPreferred)
}

func TestSkillMatcher_CaseInsensitiveTrimmed(t *testing.T) {
	m := NewSkillMatcher()

	result := m.Match(
		[]string{"  python ", "GO"},
		[]string{"Python", "go"},
		nil,
		nil,
	)
	assert.Equal(t, 1.0, result.Score)
	assert.Len(t, result.MatchedRequired, 2)
	assert.Empty(t, result.MissingRequired)
}

func TestSkillMatcher_ScoreBounds(t *testing.T) {
	m := NewSkillMatcher()

	// 大量缺失关键技能时分数被钳制在0
	required := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	result := m.Match(nil, required, nil, required)
	assert.Equal(t, 0.0, result.Score)

	// 大量加分技能命中时分数被钳制在1
	preferred := []string{"P1", "P2", "P3", "P4", "P5", "P6"}
	result = m.Match(append([]string{"A"}, preferred...), []string{"A"}, preferred, nil)
	assert.Equal(t, 1.0, result.Score)
}

func TestSkillMatcher_PartitionInvariant(t *testing.T) {
	m := NewSkillMatcher()

	required := []string{"Go", "Rust", "Kafka", "Redis"}
	result := m.Match([]string{"go", "redis"}, required, nil, []string{"Rust", "Kafka"})

	// matched 与 missing 恰好构成 required 的划分
	assert.Len(t, append(result.MatchedRequired, result.MissingRequired...), len(required))
	// critical_missing ⊆ missing_required
	for _, s := range result.CriticalMissing {
		assert.Contains(t, result.MissingRequired, s)
	}
}

func TestSkillMatcher_AdditionalSkillsCapped(t *testing.T) {
	m := NewSkillMatcher()

	candidate := []string{"Go", "S1", "S2", "S3", "S4", "S5", "S6", "S7"}
	result := m.Match(candidate, []string{"Go"}, nil, nil)

	// 额外技能上限5项，保留候选人顺序
	assert.Equal(t, []string{"S1", "S2", "S3", "S4", "S5"}, result.AdditionalSkills)
}

func TestFallbackCriticalSkills(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, FallbackCriticalSkills([]string{"A", "B", "C", "D"}))
	assert.Equal(t, []string{"A"}, FallbackCriticalSkills([]string{"A"}))
	assert.Empty(t, FallbackCriticalSkills(nil))
}
