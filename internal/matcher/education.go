package matcher

import (
	"fmt"
	"strings"

	"talent-match-go/internal/types"
)

// EducationMatcher 教育背景匹配器：基于学历关键词的子串匹配
type EducationMatcher struct{}

// NewEducationMatcher 创建教育背景匹配器
func NewEducationMatcher() *EducationMatcher {
	return &EducationMatcher{}
}

// Match 计算候选人教育背景与岗位学历要求的匹配度
func (m *EducationMatcher) Match(candidateEdu []types.Education, requiredEdu []string) types.EducationMatch {
	if len(requiredEdu) == 0 {
		// 无学历要求时视为满足
		return types.EducationMatch{
			Score:              1.0,
			CandidateEducation: []string{},
			RequiredEducation:  []string{},
			MeetsRequirement:   true,
		}
	}

	// 将教育经历压平为 "<学位> in <院校>" 的字符串
	degrees := make([]string, 0, len(candidateEdu))
	for _, e := range candidateEdu {
		degrees = append(degrees, fmt.Sprintf("%s in %s", e.Degree, e.Institution))
	}

	// 任一要求关键词(忽略大小写)是任一压平条目的子串即视为满足
	matched := false
	for _, req := range requiredEdu {
		reqLower := strings.ToLower(req)
		for _, deg := range degrees {
			if strings.Contains(strings.ToLower(deg), reqLower) {
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	score := 1.0
	if !matched {
		// 未命中但有教育经历给0.7，完全无教育经历给0.4
		score = 0.7
		if len(degrees) == 0 {
			score = 0.4
		}
	}

	return types.EducationMatch{
		Score:              score,
		CandidateEducation: degrees,
		RequiredEducation:  requiredEdu,
		MeetsRequirement:   matched,
	}
}
