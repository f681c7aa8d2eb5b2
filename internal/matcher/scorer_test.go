package matcher

import (
	"context"
	"errors"
	"math"
	"testing"

	"talent-match-go/internal/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCriticalSkillClassifier 模拟关键技能分类能力
type MockCriticalSkillClassifier struct {
	critical []string
	err      error
}

func (m *MockCriticalSkillClassifier) ClassifyCriticalSkills(ctx context.Context, jobDescription string, requiredSkills []string) ([]string, error) {
	return m.critical, m.err
}

func fullCandidate() *types.CandidateProfile {
	years := 6
	return &types.CandidateProfile{
		CandidateID:     "cand-1",
		Name:            "张伟",
		Skills:          []string{"Go", "MySQL", "Redis", "Kafka"},
		ExperienceYears: &years,
		Education: []types.Education{
			{Degree: "Bachelor of Computer Science", Institution: "Zhejiang University", Year: "2018"},
		},
		WorkHistory: []types.WorkExperience{
			{Title: "Backend Engineer", Company: "Acme", Duration: "2020-2024"},
		},
	}
}

func fullJob() *types.JobRequirement {
	min := 5
	return &types.JobRequirement{
		JobID:                 "job-1",
		Title:                 "Senior Backend Engineer",
		Company:               "Beta Inc",
		Description:           "We build high throughput matching services in Go.",
		RequiredSkills:        []string{"Go", "MySQL", "Kafka"},
		PreferredSkills:       []string{"Redis"},
		MinYearsExperience:    &min,
		EducationRequirements: []string{"Computer Science"},
	}
}

func TestComputeCompatibility_WeightedFormula(t *testing.T) {
	judge := &MockWorkHistoryJudge{
		verdict: &types.WorkHistoryVerdict{Score: 90, RelevantCount: 1, RecentRelevant: true, Progression: "Positive"},
	}
	classifier := &MockCriticalSkillClassifier{critical: []string{"Go"}}
	s := NewCompatibilityScorer(classifier, judge, zerolog.Nop())

	report := s.ComputeCompatibility(context.Background(), fullCandidate(), fullJob(), 0.9)

	// 子分: 技能 clamp(1.0+0.05)=1.0, 经验 1.0, 教育 1.0, 经历 0.9, 语义 0.9
	want := int(math.Round(1.0*100*0.40 + 1.0*100*0.25 + 1.0*100*0.15 + 0.9*100*0.10 + 0.9*100*0.10))
	assert.Equal(t, want, report.OverallScore)
	assert.Equal(t, report.OverallScore, report.MatchPercentage)
	assert.Equal(t, types.TierHighlyRecommended, report.Recommendation)

	// 所有子分都在[0,1]内
	for _, sub := range []float64{
		report.SkillMatch.Score,
		report.ExperienceMatch.Score,
		report.EducationMatch.Score,
		report.WorkHistoryRelevance.Score,
		report.SemanticSimilarity.Score,
	} {
		assert.GreaterOrEqual(t, sub, 0.0)
		assert.LessOrEqual(t, sub, 1.0)
	}
}

func TestTierForScore_ExactBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  types.RecommendationTier
	}{
		{54, types.TierNotRecommended},
		{55, types.TierPotentialFit},
		{69, types.TierPotentialFit},
		{70, types.TierRecommended},
		{84, types.TierRecommended},
		{85, types.TierHighlyRecommended},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierForScore(tc.score), "score=%d", tc.score)
	}
}

func TestComputeCompatibility_ClassifierFailureFallsBack(t *testing.T) {
	classifier := &MockCriticalSkillClassifier{err: errors.New("classifier unavailable")}
	s := NewCompatibilityScorer(classifier, nil, zerolog.Nop())

	candidate := &types.CandidateProfile{CandidateID: "c", Skills: []string{"D"}}
	job := &types.JobRequirement{
		JobID:          "j",
		RequiredSkills: []string{"A", "B", "C", "D"},
	}
	report := s.ComputeCompatibility(context.Background(), candidate, job, 0.5)

	// 回退关键技能为必备列表前三项，缺失的 A/B/C 均计为关键缺失
	assert.ElementsMatch(t, []string{"A", "B", "C"}, report.SkillMatch.CriticalMissing)
}

func TestComputeCompatibility_SemanticInterpretation(t *testing.T) {
	s := NewCompatibilityScorer(nil, nil, zerolog.Nop())
	candidate := &types.CandidateProfile{CandidateID: "c"}
	job := &types.JobRequirement{JobID: "j"}

	cases := []struct {
		score float64
		want  string
	}{
		{0.9, "Very strong semantic match"},
		{0.85, "Strong match"},
		{0.71, "Strong match"},
		{0.70, "Moderate match"},
		{0.51, "Moderate match"},
		{0.50, "Low semantic match"},
		{0.1, "Low semantic match"},
	}
	for _, tc := range cases {
		report := s.ComputeCompatibility(context.Background(), candidate, job, tc.score)
		assert.Equal(t, tc.want, report.SemanticSimilarity.Interpretation, "score=%v", tc.score)
	}
}

func TestComputeCompatibility_StrengthsWeaknesses(t *testing.T) {
	judge := &MockWorkHistoryJudge{
		verdict: &types.WorkHistoryVerdict{Score: 90, RelevantCount: 1, RecentRelevant: true, Progression: "Positive"},
	}
	classifier := &MockCriticalSkillClassifier{critical: []string{"Go"}}
	s := NewCompatibilityScorer(classifier, judge, zerolog.Nop())

	report := s.ComputeCompatibility(context.Background(), fullCandidate(), fullJob(), 0.9)

	assert.Contains(t, report.Strengths, "Strong technical skill match")
	assert.Contains(t, report.Strengths, "Education requirements met")
	assert.Contains(t, report.Strengths, "Highly relevant work history")
	assert.Contains(t, report.Strengths, "Resume content strongly aligns with job description")
	assert.Empty(t, report.Weaknesses)

	// 无短板无缺失时给出唯一一条"直接进入面试"建议
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "for_hr", report.Recommendations[0].Type)
	assert.Equal(t, "high", report.Recommendations[0].Priority)
}

func TestComputeCompatibility_MissingSkillRecommendations(t *testing.T) {
	classifier := &MockCriticalSkillClassifier{critical: []string{"Rust"}}
	s := NewCompatibilityScorer(classifier, nil, zerolog.Nop())

	candidate := &types.CandidateProfile{CandidateID: "c", Skills: []string{"Go"}}
	min := 3
	job := &types.JobRequirement{
		JobID:              "j",
		RequiredSkills:     []string{"Go", "Rust", "WASM", "LLVM"},
		MinYearsExperience: &min,
	}
	report := s.ComputeCompatibility(context.Background(), candidate, job, 0.4)

	// 缺失关键技能 → 候选人侧高优先级 + HR侧中优先级各一条，最多点名3项
	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, "for_candidate", report.Recommendations[0].Type)
	assert.Equal(t, "high", report.Recommendations[0].Priority)
	assert.Contains(t, report.Recommendations[0].Recommendation, "Rust")
	assert.Equal(t, "for_hr", report.Recommendations[1].Type)
	assert.Equal(t, "medium", report.Recommendations[1].Priority)

	// 面试考察点: 前2项缺失技能 + 经验差距 + 固定收尾项
	require.Len(t, report.InterviewFocusAreas, 3)
	assert.Contains(t, report.InterviewFocusAreas[0], "Rust")
	assert.Contains(t, report.InterviewFocusAreas[0], "WASM")
	assert.NotContains(t, report.InterviewFocusAreas[0], "LLVM")
	assert.Equal(t, "Career progression and recent projects", report.InterviewFocusAreas[2])
}
