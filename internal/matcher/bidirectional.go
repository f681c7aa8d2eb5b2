package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"talent-match-go/internal/types"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var matcherTracer = otel.Tracer("talent-match-go/matcher")

// 检索超采样倍数：先取 limit 的2倍近邻，完整评分过滤后再截断，
// 避免按完整分数过滤时结果列表被掏空
const oversampleFactor = 2

// 岗位→候选人方向的简化加权（与完整报告的权重刻意不同，见 CandidateMatch 注释）
const (
	simpleWeightSimilarity = 0.4
	simpleWeightSkill      = 0.4
	simpleWeightExperience = 0.2
)

// 无嵌入向量可用时的中性语义相似度
const neutralSimilarity = 0.5

// BidirectionalMatcher 双向匹配编排器
// 候选人→岗位方向走完整的综合评分；岗位→候选人方向走简化加权
type BidirectionalMatcher struct {
	store               ProfileStore
	index               VectorIndex
	scorer              *CompatibilityScorer
	candidateCollection string
	jobCollection       string
	logger              zerolog.Logger
}

// NewBidirectionalMatcher 创建双向匹配器
func NewBidirectionalMatcher(store ProfileStore, index VectorIndex, scorer *CompatibilityScorer, candidateCollection, jobCollection string, logger zerolog.Logger) *BidirectionalMatcher {
	return &BidirectionalMatcher{
		store:               store,
		index:               index,
		scorer:              scorer,
		candidateCollection: candidateCollection,
		jobCollection:       jobCollection,
		logger:              logger,
	}
}

// FindMatchingJobsForCandidate 为候选人检索最匹配的岗位
// minScore 取值0-1，按 overall_score < minScore*100 过滤；结果按总分降序，最多 limit 条
func (m *BidirectionalMatcher) FindMatchingJobsForCandidate(ctx context.Context, candidateID string, limit int, minScore float64) ([]types.JobMatch, error) {
	ctx, span := matcherTracer.Start(ctx, "Matcher.FindMatchingJobsForCandidate",
		trace.WithAttributes(
			attribute.String("candidate.id", candidateID),
			attribute.Int("match.limit", limit),
		))
	defer span.End()

	candidate, err := m.store.GetCandidateProfile(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if len(candidate.Embedding) == 0 {
		return nil, fmt.Errorf("候选人 %s 缺少嵌入向量: %w", candidateID, ErrCandidateNotFound)
	}

	neighbors, err := m.index.NearestNeighbors(ctx, m.jobCollection, candidate.Embedding, limit*oversampleFactor)
	if err != nil {
		return nil, fmt.Errorf("岗位向量检索失败: %w", err)
	}

	matches := make([]types.JobMatch, 0, len(neighbors))
	for _, n := range neighbors {
		similarity := 1 - n.Distance

		job, err := m.store.GetJobRequirement(ctx, n.ID)
		if err != nil {
			// 单条联表数据缺失只跳过该条，不中断整个排名
			m.logger.Warn().Err(err).Str("job_id", n.ID).
				Msg("岗位要求加载失败，跳过该候选条目")
			continue
		}

		report := m.scorer.ComputeCompatibility(ctx, candidate, job, similarity)
		if float64(report.OverallScore) < minScore*100 {
			continue
		}

		matches = append(matches, types.JobMatch{
			JobID:             job.JobID,
			JobTitle:          job.Title,
			Company:           job.Company,
			Location:          job.Location,
			SimilarityScore:   round2(similarity),
			Compatibility:     report,
			OverallMatchScore: report.OverallScore,
			MatchPercentage:   report.MatchPercentage,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OverallMatchScore > matches[j].OverallMatchScore
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	span.SetAttributes(attribute.Int("match.result_count", len(matches)))
	return matches, nil
}

// FindMatchingCandidatesForJob 为岗位检索最匹配的候选人
// 本方向刻意使用简化加权: overall = similarity*0.4 + skill_overlap*0.4 + experience_fit*0.2
// 其中技能重叠无关键技能加罚，且岗位无技能要求时重叠为0.0
func (m *BidirectionalMatcher) FindMatchingCandidatesForJob(ctx context.Context, jobID string, limit int, minScore float64) ([]types.CandidateMatch, error) {
	ctx, span := matcherTracer.Start(ctx, "Matcher.FindMatchingCandidatesForJob",
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.Int("match.limit", limit),
		))
	defer span.End()

	job, err := m.store.GetJobRequirement(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Embedding) == 0 {
		return nil, fmt.Errorf("岗位 %s 缺少嵌入向量: %w", jobID, ErrJobNotFound)
	}

	neighbors, err := m.index.NearestNeighbors(ctx, m.candidateCollection, job.Embedding, limit*oversampleFactor)
	if err != nil {
		return nil, fmt.Errorf("候选人向量检索失败: %w", err)
	}

	matches := make([]types.CandidateMatch, 0, len(neighbors))
	for _, n := range neighbors {
		similarity := 1 - n.Distance

		candidate, err := m.store.GetCandidateProfile(ctx, n.ID)
		if err != nil {
			m.logger.Warn().Err(err).Str("candidate_id", n.ID).
				Msg("候选人画像加载失败，跳过该候选条目")
			continue
		}

		overlapScore, matched, missing := simpleSkillOverlap(candidate.Skills, job.RequiredSkills)
		expScore := simpleExperienceFit(candidate.Years(), job.MinYearsExperience, job.MaxYearsExperience)

		overall := similarity*simpleWeightSimilarity + overlapScore*simpleWeightSkill + expScore*simpleWeightExperience
		if overall < minScore {
			continue
		}

		name := candidate.Name
		if name == "" {
			name = "Unknown Candidate"
		}
		matches = append(matches, types.CandidateMatch{
			CandidateID:          candidate.CandidateID,
			Name:                 name,
			SimilarityScore:      round2(similarity),
			SkillMatchScore:      round2(overlapScore),
			ExperienceMatchScore: round2(expScore),
			OverallMatchScore:    round2(overall),
			MatchPercentage:      int(overall * 100),
			MatchedSkills:        matched,
			MissingSkills:        missing,
			MatchExplanation:     simpleMatchExplanation(matched, missing, expScore, candidate.Years(), job.MinYearsExperience),
			Recommendation:       simpleTier(overall),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OverallMatchScore > matches[j].OverallMatchScore
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	span.SetAttributes(attribute.Int("match.result_count", len(matches)))
	return matches, nil
}

// ComputeCompatibilityByID 按ID装载双方数据并计算完整匹配报告
// 语义相似度取双方已存嵌入向量的余弦相似度，任一侧缺失时取中性值0.5
func (m *BidirectionalMatcher) ComputeCompatibilityByID(ctx context.Context, candidateID, jobID string) (*types.CompatibilityScore, error) {
	candidate, err := m.store.GetCandidateProfile(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	job, err := m.store.GetJobRequirement(ctx, jobID)
	if err != nil {
		return nil, err
	}

	similarity := neutralSimilarity
	if len(candidate.Embedding) > 0 && len(job.Embedding) > 0 {
		if s, ok := cosineSimilarity(candidate.Embedding, job.Embedding); ok {
			similarity = s
		}
	}

	return m.scorer.ComputeCompatibility(ctx, candidate, job, similarity), nil
}

// ScoreCandidateAgainstJobs 把一个候选人与一批岗位逐一评分
// 严格顺序处理；单条失败(岗位缺失、数据异常)记录日志后跳过，整体绝不失败，
// 返回可能短于 jobIDs 的成功结果列表
func (m *BidirectionalMatcher) ScoreCandidateAgainstJobs(ctx context.Context, candidateID string, jobIDs []string) ([]*types.CompatibilityScore, error) {
	candidate, err := m.store.GetCandidateProfile(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	reports := make([]*types.CompatibilityScore, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		job, err := m.store.GetJobRequirement(ctx, jobID)
		if err != nil {
			m.logger.Warn().Err(err).Str("candidate_id", candidateID).Str("job_id", jobID).
				Msg("批量评分单条处理失败，跳过")
			continue
		}

		similarity := neutralSimilarity
		if len(candidate.Embedding) > 0 && len(job.Embedding) > 0 {
			if s, ok := cosineSimilarity(candidate.Embedding, job.Embedding); ok {
				similarity = s
			}
		}
		reports = append(reports, m.scorer.ComputeCompatibility(ctx, candidate, job, similarity))
	}
	return reports, nil
}

// IsNotFound 判断错误是否属于"实体不存在"分类
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCandidateNotFound) || errors.Is(err, ErrJobNotFound)
}

// simpleSkillOverlap 岗位→候选人方向的技能重叠: |命中|/|必备|，无必备技能时为0.0
// 注意：比 SkillMatcher 语义更窄，无关键技能加罚与加分技能加成
func simpleSkillOverlap(candidateSkills, requiredSkills []string) (score float64, matched, missing []string) {
	matched = []string{}
	missing = []string{}
	if len(requiredSkills) == 0 {
		return 0.0, matched, missing
	}

	candidateSet := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		candidateSet[normalizeSkill(s)] = true
	}
	for _, r := range requiredSkills {
		if candidateSet[normalizeSkill(r)] {
			matched = append(matched, r)
		} else {
			missing = append(missing, r)
		}
	}
	return float64(len(matched)) / float64(len(requiredSkills)), matched, missing
}

// simpleExperienceFit 岗位→候选人方向的经验分档
func simpleExperienceFit(candidateYears int, minYears, maxYears *int) float64 {
	if minYears == nil {
		// 未设要求时给中性偏好分
		return 0.8
	}
	if candidateYears < *minYears {
		gap := *minYears - candidateYears
		return math.Max(0.0, 1.0-float64(gap)*0.2)
	}
	if maxYears != nil && candidateYears > *maxYears {
		return 0.9
	}
	return 1.0
}

// simpleTier 简化方向的推荐等级，阈值定义在0-1分值上，与完整报告的85/70/55刻意不同
func simpleTier(overall float64) types.RecommendationTier {
	switch {
	case overall >= 0.80:
		return types.TierHighlyRecommended
	case overall >= 0.65:
		return types.TierRecommended
	case overall >= 0.50:
		return types.TierPotentialFit
	default:
		return types.TierNotRecommended
	}
}

// simpleMatchExplanation 生成简短的匹配说明
func simpleMatchExplanation(matched, missing []string, expScore float64, candidateYears int, minYears *int) string {
	explanation := ""
	totalRequired := len(matched) + len(missing)
	if totalRequired > 0 {
		explanation = fmt.Sprintf("%d/%d skills matched.", len(matched), totalRequired)
	} else {
		explanation = "No specific skills required."
	}

	if expScore >= 0.9 {
		explanation += fmt.Sprintf(" Experience (%dy) fits well.", candidateYears)
	} else if minYears != nil && candidateYears < *minYears {
		explanation += fmt.Sprintf(" Below exp req (%dy+).", *minYears)
	}
	return explanation
}

// cosineSimilarity 计算两个向量的余弦相似度，维度不一致或零向量时返回 ok=false
func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
