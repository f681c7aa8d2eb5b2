package matcher

import (
	"fmt"

	"talent-match-go/internal/types"
)

// ExperienceMatcher 经验匹配器：按工作年限差距分档打分
type ExperienceMatcher struct{}

// NewExperienceMatcher 创建经验匹配器
func NewExperienceMatcher() *ExperienceMatcher {
	return &ExperienceMatcher{}
}

// Match 计算候选人年限与岗位年限区间的匹配度
// candidateYears 缺省按0年，minYears 缺省按0年，maxYears 可为空表示不设上限
func (m *ExperienceMatcher) Match(candidateYears int, minYears, maxYears *int) types.ExperienceMatch {
	min := 0
	if minYears != nil {
		min = *minYears
	}

	result := types.ExperienceMatch{
		CandidateYears: candidateYears,
		RequiredYears:  min,
	}

	if candidateYears >= min {
		if maxYears != nil && candidateYears > *maxYears+5 {
			// 明显超配，轻微减分
			result.Score = 0.95
			result.Assessment = types.AssessmentExceeds
			result.Details = fmt.Sprintf("%d years exceeds requirement significantly.", candidateYears)
			return result
		}
		result.Score = 1.0
		if candidateYears > min {
			result.Assessment = types.AssessmentExceeds
		} else {
			result.Assessment = types.AssessmentMeetsRequirement
		}
		result.Details = fmt.Sprintf("%d years meets the %d+ years requirement.", candidateYears, min)
		return result
	}

	gap := min - candidateYears
	result.Gap = gap
	switch {
	case gap <= 1:
		result.Score = 0.85
		result.Assessment = types.AssessmentSlightlyBelow
		result.Details = fmt.Sprintf("%d years is slightly below the %d years requirement.", candidateYears, min)
	case gap <= 2:
		result.Score = 0.70
		result.Assessment = types.AssessmentSignificantlyBelow
		result.Details = "Missing 2 years of required experience."
	default:
		result.Score = 0.50
		result.Assessment = types.AssessmentSignificantlyBelow
		result.Details = fmt.Sprintf("Significant experience gap (%d years).", gap)
	}
	return result
}
