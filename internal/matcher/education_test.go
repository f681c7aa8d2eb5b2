package matcher

import (
	"testing"

	"talent-match-go/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestEducationMatcher_NoRequirements(t *testing.T) {
	m := NewEducationMatcher()

	result := m.Match(nil, nil)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.MeetsRequirement)
}

func TestEducationMatcher_KeywordSubstringMatch(t *testing.T) {
	m := NewEducationMatcher()

	edu := []types.Education{
		{Degree: "Bachelor of Computer Science", Institution: "Tsinghua University", Year: "2019"},
	}

	// 关键词大小写不敏感的子串匹配
	result := m.Match(edu, []string{"computer science"})
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.MeetsRequirement)
	assert.Equal(t, []string{"Bachelor of Computer Science in Tsinghua University"}, result.CandidateEducation)
}

func TestEducationMatcher_NoMatchWithEducation(t *testing.T) {
	m := NewEducationMatcher()

	edu := []types.Education{{Degree: "Bachelor of Arts", Institution: "Some College"}}
	result := m.Match(edu, []string{"Computer Science"})

	// 未命中但有教育经历给0.7
	assert.Equal(t, 0.7, result.Score)
	assert.False(t, result.MeetsRequirement)
}

func TestEducationMatcher_NoEducationAtAll(t *testing.T) {
	m := NewEducationMatcher()

	result := m.Match(nil, []string{"Bachelor"})

	// 有学历要求但完全无教育经历给0.4
	assert.Equal(t, 0.4, result.Score)
	assert.False(t, result.MeetsRequirement)
	assert.Equal(t, []string{"Bachelor"}, result.RequiredEducation)
}
