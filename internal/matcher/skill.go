package matcher

import (
	"math"
	"strings"

	"talent-match-go/internal/types"
)

const (
	// 缺失一项关键技能的扣分
	criticalMissingPenalty = 0.15
	// 命中一项加分技能的加分
	preferredSkillBonus = 0.05
	// 额外技能最多保留的数量
	maxAdditionalSkills = 5
	// 关键技能分类能力不可用时，取必备技能列表的前几项作为关键技能
	criticalFallbackCount = 3
)

// SkillMatcher 技能匹配器：基于集合重叠计算技能得分，并对缺失关键技能加罚
type SkillMatcher struct{}

// NewSkillMatcher 创建技能匹配器
func NewSkillMatcher() *SkillMatcher {
	return &SkillMatcher{}
}

// Match 计算候选人技能与岗位要求的匹配度
// critical 为必备技能中被判定为关键(must-have)的子集
func (m *SkillMatcher) Match(candidateSkills, required, preferred, critical []string) types.SkillMatch {
	if len(required) == 0 {
		// 岗位无硬性技能要求时按满分处理
		return types.SkillMatch{
			Score:            1.0,
			MatchedRequired:  []string{},
			MissingRequired:  []string{},
			MatchedPreferred: []string{},
			MissingPreferred: []string{},
			AdditionalSkills: []string{},
			MatchRate:        1.0,
			CriticalMissing:  []string{},
		}
	}

	candidateSet := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		candidateSet[normalizeSkill(s)] = true
	}

	matchedReq, missingReq := partitionByCandidate(required, candidateSet)
	matchedPref, missingPref := partitionByCandidate(preferred, candidateSet)

	// 缺失技能中属于关键技能的部分（与分类结果按原文精确比对）
	criticalSet := make(map[string]bool, len(critical))
	for _, s := range critical {
		criticalSet[s] = true
	}
	criticalMissing := make([]string, 0, len(missingReq))
	for _, s := range missingReq {
		if criticalSet[s] {
			criticalMissing = append(criticalMissing, s)
		}
	}

	coverage := float64(len(matchedReq)) / float64(len(required))
	penalty := float64(len(criticalMissing)) * criticalMissingPenalty
	bonus := float64(len(matchedPref)) * preferredSkillBonus
	score := clamp01(coverage - penalty + bonus)

	// 候选人额外技能：不在必备∪加分集合中的技能，保留候选人顺序，上限5项
	jobSkillSet := make(map[string]bool, len(required)+len(preferred))
	for _, s := range append(append([]string{}, required...), preferred...) {
		jobSkillSet[normalizeSkill(s)] = true
	}
	additional := make([]string, 0, maxAdditionalSkills)
	for _, s := range candidateSkills {
		if !jobSkillSet[normalizeSkill(s)] {
			additional = append(additional, s)
			if len(additional) == maxAdditionalSkills {
				break
			}
		}
	}

	return types.SkillMatch{
		Score:            round2(score),
		MatchedRequired:  matchedReq,
		MissingRequired:  missingReq,
		MatchedPreferred: matchedPref,
		MissingPreferred: missingPref,
		AdditionalSkills: additional,
		MatchRate:        round2(coverage),
		CriticalMissing:  criticalMissing,
	}
}

// FallbackCriticalSkills 关键技能分类能力不可用时的确定性回退：
// 取必备技能列表顺序中的前三项
func FallbackCriticalSkills(required []string) []string {
	n := criticalFallbackCount
	if len(required) < n {
		n = len(required)
	}
	return required[:n]
}

// partitionByCandidate 按候选人技能集合把 skills 划分为命中与缺失两组，保留原始写法与顺序
func partitionByCandidate(skills []string, candidateSet map[string]bool) (matched, missing []string) {
	matched = make([]string, 0, len(skills))
	missing = make([]string, 0, len(skills))
	for _, s := range skills {
		if candidateSet[normalizeSkill(s)] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// normalizeSkill 技能归一化：去首尾空白并转小写
func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
