package matcher

import (
	"context"
	"fmt"
	"math"
	"strings"

	"talent-match-go/internal/types"

	"github.com/rs/zerolog"
)

// 五个子维度的固定权重，合计恰好为1.0
const (
	weightSkill      = 0.40
	weightExperience = 0.25
	weightEducation  = 0.15
	weightWork       = 0.10
	weightSemantic   = 0.10
)

// 推荐等级的总分阈值
const (
	tierHighlyRecommendedMin = 85
	tierRecommendedMin       = 70
	tierPotentialFitMin      = 55
)

// CompatibilityScorer 人岗匹配综合评分器
// 无状态：给定输入即可得到输出，跨请求无共享可变状态，可并发使用
type CompatibilityScorer struct {
	skills     *SkillMatcher
	experience *ExperienceMatcher
	education  *EducationMatcher
	work       *WorkHistoryAssessor
	classifier CriticalSkillClassifier
	logger     zerolog.Logger
}

// NewCompatibilityScorer 创建综合评分器
// classifier 与 judge 均可为 nil，对应能力走确定性回退
func NewCompatibilityScorer(classifier CriticalSkillClassifier, judge WorkHistoryJudge, logger zerolog.Logger) *CompatibilityScorer {
	return &CompatibilityScorer{
		skills:     NewSkillMatcher(),
		experience: NewExperienceMatcher(),
		education:  NewEducationMatcher(),
		work:       NewWorkHistoryAssessor(judge, logger),
		classifier: classifier,
		logger:     logger,
	}
}

// ComputeCompatibility 计算单个(候选人, 岗位)对的完整匹配报告
// semanticSimilarity 由调用方/检索层提供（通常为嵌入向量的余弦相似度）
func (s *CompatibilityScorer) ComputeCompatibility(ctx context.Context, candidate *types.CandidateProfile, job *types.JobRequirement, semanticSimilarity float64) *types.CompatibilityScore {
	critical := s.identifyCriticalSkills(ctx, job)

	skillMatch := s.skills.Match(candidate.Skills, job.RequiredSkills, job.PreferredSkills, critical)
	expMatch := s.experience.Match(candidate.Years(), job.MinYearsExperience, job.MaxYearsExperience)
	eduMatch := s.education.Match(candidate.Education, job.EducationRequirements)
	workRelevance := s.work.Assess(ctx, job, candidate.WorkHistory)
	semantic := BuildSemanticSimilarity(semanticSimilarity)

	overall := int(math.Round(
		skillMatch.Score*100*weightSkill +
			expMatch.Score*100*weightExperience +
			eduMatch.Score*100*weightEducation +
			workRelevance.Score*100*weightWork +
			semantic.Score*100*weightSemantic))

	strengths, weaknesses := buildStrengthsWeaknesses(skillMatch, expMatch, eduMatch, workRelevance, semantic)

	return &types.CompatibilityScore{
		CandidateID:          candidate.CandidateID,
		JobID:                job.JobID,
		OverallScore:         overall,
		MatchPercentage:      overall,
		Recommendation:       TierForScore(overall),
		SkillMatch:           skillMatch,
		ExperienceMatch:      expMatch,
		EducationMatch:       eduMatch,
		WorkHistoryRelevance: workRelevance,
		SemanticSimilarity:   semantic,
		Strengths:            strengths,
		Weaknesses:           weaknesses,
		Recommendations:      buildRecommendations(weaknesses, skillMatch.CriticalMissing),
		InterviewFocusAreas:  buildInterviewFocus(skillMatch, expMatch),
	}
}

// TierForScore 推荐等级是总分的纯函数
func TierForScore(overall int) types.RecommendationTier {
	switch {
	case overall >= tierHighlyRecommendedMin:
		return types.TierHighlyRecommended
	case overall >= tierRecommendedMin:
		return types.TierRecommended
	case overall >= tierPotentialFitMin:
		return types.TierPotentialFit
	default:
		return types.TierNotRecommended
	}
}

// identifyCriticalSkills 调用关键技能分类能力，失败时回退为前三项必备技能
func (s *CompatibilityScorer) identifyCriticalSkills(ctx context.Context, job *types.JobRequirement) []string {
	if len(job.RequiredSkills) == 0 {
		return []string{}
	}
	if s.classifier == nil {
		return FallbackCriticalSkills(job.RequiredSkills)
	}
	critical, err := s.classifier.ClassifyCriticalSkills(ctx, job.Description, job.RequiredSkills)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.JobID).
			Msg("关键技能分类失败，回退为前三项必备技能")
		return FallbackCriticalSkills(job.RequiredSkills)
	}
	return critical
}

// buildStrengthsWeaknesses 按各子维度的固定规则生成优势与短板
func buildStrengthsWeaknesses(skill types.SkillMatch, exp types.ExperienceMatch, edu types.EducationMatch, work types.WorkHistoryRelevance, sem types.SemanticSimilarity) (strengths, weaknesses []string) {
	strengths = []string{}
	weaknesses = []string{}

	if skill.Score > 0.8 {
		strengths = append(strengths, "Strong technical skill match")
	}
	if len(skill.CriticalMissing) > 0 {
		weaknesses = append(weaknesses, fmt.Sprintf("Missing critical skills: %s", strings.Join(skill.CriticalMissing, ", ")))
	}

	if exp.Assessment == types.AssessmentMeetsRequirement || exp.Assessment == types.AssessmentExceeds {
		strengths = append(strengths, exp.Details)
	} else {
		weaknesses = append(weaknesses, exp.Details)
	}

	if edu.MeetsRequirement {
		strengths = append(strengths, "Education requirements met")
	}
	if work.Score > 0.8 {
		strengths = append(strengths, "Highly relevant work history")
	}
	if sem.Score > 0.8 {
		strengths = append(strengths, "Resume content strongly aligns with job description")
	}

	return strengths, weaknesses
}

// buildRecommendations 按缺失关键/必备技能生成面向候选人与HR的建议
func buildRecommendations(weaknesses, missingSkills []string) []types.Recommendation {
	recs := []types.Recommendation{}
	if len(missingSkills) > 0 {
		top := missingSkills
		if len(top) > 3 {
			top = top[:3]
		}
		named := strings.Join(top, ", ")
		recs = append(recs, types.Recommendation{
			Type:           "for_candidate",
			Priority:       "high",
			Recommendation: fmt.Sprintf("Consider upskilling in: %s", named),
		})
		recs = append(recs, types.Recommendation{
			Type:           "for_hr",
			Priority:       "medium",
			Recommendation: fmt.Sprintf("Probe depth of knowledge in %s during interview", named),
		})
	}

	if len(recs) == 0 && len(weaknesses) == 0 {
		recs = append(recs, types.Recommendation{
			Type:           "for_hr",
			Priority:       "high",
			Recommendation: "Proceed to interview ideally.",
		})
	}
	return recs
}

// buildInterviewFocus 生成面试考察重点
func buildInterviewFocus(skill types.SkillMatch, exp types.ExperienceMatch) []string {
	areas := []string{}
	if len(skill.MissingRequired) > 0 {
		top := skill.MissingRequired
		if len(top) > 2 {
			top = top[:2]
		}
		areas = append(areas, fmt.Sprintf("Verify knowledge gaps in: %s", strings.Join(top, ", ")))
	}
	if exp.Gap > 0 {
		areas = append(areas, "Discuss ability to ramp up given experience gap")
	}
	areas = append(areas, "Career progression and recent projects")
	return areas
}
