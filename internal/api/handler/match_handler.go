package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"talent-match-go/internal/config"
	"talent-match-go/internal/constants"
	"talent-match-go/internal/matcher"
	"talent-match-go/internal/storage"
	"talent-match-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// MatchHandler 负责处理人岗匹配相关的请求
type MatchHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	matcher *matcher.BidirectionalMatcher
	logger  *log.Logger
}

// NewMatchHandler 创建一个新的 MatchHandler 实例
func NewMatchHandler(cfg *config.Config, storage *storage.Storage, m *matcher.BidirectionalMatcher) *MatchHandler {
	return &MatchHandler{
		cfg:     cfg,
		storage: storage,
		matcher: m,
		logger:  log.New(os.Stdout, "[MatchHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// scoreRequest 单对评分请求体
type scoreRequest struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
}

// batchScoreRequest 批量评分请求体
type batchScoreRequest struct {
	CandidateID string   `json:"candidate_id"`
	JobIDs      []string `json:"job_ids"`
}

// HandleComputeScore 处理单个(候选人, 岗位)对的完整匹配评分请求
// POST /api/v1/compatibility/score
func (h *MatchHandler) HandleComputeScore(ctx context.Context, c *app.RequestContext) {
	var req scoreRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体格式错误"})
		return
	}
	if !isValidID(req.CandidateID) || !isValidID(req.JobID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "candidate_id 和 job_id 必须是有效的UUID"})
		return
	}

	// 1. 尝试从Redis缓存读取已有报告
	if h.storage.Redis != nil {
		cached, err := h.storage.Redis.GetCachedMatchReport(ctx, req.CandidateID, req.JobID)
		if err == nil {
			c.JSON(consts.StatusOK, map[string]interface{}{
				"message": "评分成功 (来自缓存)",
				"data":    cached,
			})
			return
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			h.logger.Printf("读取匹配报告缓存失败 candidate=%s job=%s: %v", req.CandidateID, req.JobID, err)
		}
	}

	// 2. 计算完整匹配报告
	report, err := h.matcher.ComputeCompatibilityByID(ctx, req.CandidateID, req.JobID)
	if err != nil {
		if matcher.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Printf("计算匹配评分失败 candidate=%s job=%s: %v", req.CandidateID, req.JobID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "计算匹配评分失败"})
		return
	}

	// 3. 持久化、缓存与事件发布都不阻塞响应
	h.persistAndPublish(ctx, report)

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message": "评分成功",
		"data":    report,
	})
}

// HandleBatchScore 处理单候选人对多岗位的批量评分请求
// 单条岗位失败只跳过该条，返回成功的子集
// POST /api/v1/compatibility/batch
func (h *MatchHandler) HandleBatchScore(ctx context.Context, c *app.RequestContext) {
	var req batchScoreRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体格式错误"})
		return
	}
	if !isValidID(req.CandidateID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "candidate_id 必须是有效的UUID"})
		return
	}
	if len(req.JobIDs) == 0 {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "job_ids 不能为空"})
		return
	}
	if len(req.JobIDs) > constants.MaxBatchJobIDs {
		c.JSON(consts.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("job_ids 数量超过上限 %d", constants.MaxBatchJobIDs),
		})
		return
	}

	reports, err := h.matcher.ScoreCandidateAgainstJobs(ctx, req.CandidateID, req.JobIDs)
	if err != nil {
		if matcher.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Printf("批量评分失败 candidate=%s: %v", req.CandidateID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "批量评分失败"})
		return
	}

	for _, report := range reports {
		h.persistAndPublish(ctx, report)
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message":         "批量评分完成",
		"data":            reports,
		"requested_count": len(req.JobIDs),
		"scored_count":    len(reports),
	})
}

// HandleMatchingJobs 处理候选人→岗位方向的排名请求
// GET /api/v1/candidates/:candidate_id/matching-jobs
func (h *MatchHandler) HandleMatchingJobs(ctx context.Context, c *app.RequestContext) {
	candidateID := c.Param("candidate_id")
	if !isValidID(candidateID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "candidate_id 必须是有效的UUID"})
		return
	}
	limit, minScore := h.rankingParams(c)

	// 缓存命中直接返回
	if h.storage.Redis != nil {
		cached, err := h.storage.Redis.GetCachedJobRanking(ctx, candidateID, limit, minScore)
		if err == nil {
			c.JSON(consts.StatusOK, map[string]interface{}{
				"message":      "匹配成功 (来自缓存)",
				"data":         cached,
				"candidate_id": candidateID,
				"total_count":  len(cached),
			})
			return
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			h.logger.Printf("读取岗位排名缓存失败 candidate=%s: %v", candidateID, err)
		}
	}

	// 同一候选人的排名计算加分布式锁，避免并发重复计算
	release := h.acquireRankingLock(ctx, "jobs", candidateID)
	if release != nil {
		defer release()
	}

	matches, err := h.matcher.FindMatchingJobsForCandidate(ctx, candidateID, limit, minScore)
	if err != nil {
		if matcher.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Printf("岗位匹配失败 candidate=%s: %v", candidateID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "岗位匹配失败"})
		return
	}

	if h.storage.Redis != nil && len(matches) > 0 {
		if err := h.storage.Redis.CacheJobRanking(ctx, candidateID, limit, minScore, matches); err != nil {
			h.logger.Printf("缓存岗位排名失败 candidate=%s: %v", candidateID, err)
		}
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message":      "匹配成功",
		"data":         matches,
		"candidate_id": candidateID,
		"total_count":  len(matches),
	})
}

// HandleMatchingCandidates 处理岗位→候选人方向的排名请求
// GET /api/v1/jobs/:job_id/matching-candidates
func (h *MatchHandler) HandleMatchingCandidates(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if !isValidID(jobID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "job_id 必须是有效的UUID"})
		return
	}
	limit, minScore := h.rankingParams(c)

	if h.storage.Redis != nil {
		cached, err := h.storage.Redis.GetCachedCandidateRanking(ctx, jobID, limit, minScore)
		if err == nil {
			c.JSON(consts.StatusOK, map[string]interface{}{
				"message":     "匹配成功 (来自缓存)",
				"data":        cached,
				"job_id":      jobID,
				"total_count": len(cached),
			})
			return
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			h.logger.Printf("读取候选人排名缓存失败 job=%s: %v", jobID, err)
		}
	}

	release := h.acquireRankingLock(ctx, "candidates", jobID)
	if release != nil {
		defer release()
	}

	matches, err := h.matcher.FindMatchingCandidatesForJob(ctx, jobID, limit, minScore)
	if err != nil {
		if matcher.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Printf("候选人匹配失败 job=%s: %v", jobID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "候选人匹配失败"})
		return
	}

	if h.storage.Redis != nil && len(matches) > 0 {
		if err := h.storage.Redis.CacheCandidateRanking(ctx, jobID, limit, minScore, matches); err != nil {
			h.logger.Printf("缓存候选人排名失败 job=%s: %v", jobID, err)
		}
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message":     "匹配成功",
		"data":        matches,
		"job_id":      jobID,
		"total_count": len(matches),
	})
}

// rankingParams 解析limit和min_score查询参数，越界时回退到配置的缺省值
func (h *MatchHandler) rankingParams(c *app.RequestContext) (int, float64) {
	limit := h.cfg.Matcher.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}
	if h.cfg.Matcher.MaxLimit > 0 && limit > h.cfg.Matcher.MaxLimit {
		limit = h.cfg.Matcher.MaxLimit
	}

	minScore := h.cfg.Matcher.DefaultMinScore
	if scoreStr := c.Query("min_score"); scoreStr != "" {
		if v, err := strconv.ParseFloat(scoreStr, 64); err == nil && v >= 0 && v <= 1 {
			minScore = v
		}
	}

	return limit, minScore
}

// acquireRankingLock 尝试获取排名计算锁，返回释放函数；锁不可用时返回nil并继续执行
func (h *MatchHandler) acquireRankingLock(ctx context.Context, direction, entityID string) func() {
	if h.storage.Redis == nil {
		return nil
	}
	lockValue, err := h.storage.Redis.AcquireRankingLock(ctx, direction, entityID)
	if err != nil {
		h.logger.Printf("获取排名锁失败 direction=%s entity=%s: %v，继续执行", direction, entityID, err)
		return nil
	}
	if lockValue == "" {
		// 已有并发计算在进行，这里不阻塞等待，直接重复计算一次
		return nil
	}
	return func() {
		released, err := h.storage.Redis.ReleaseRankingLock(ctx, direction, entityID, lockValue)
		if err != nil || !released {
			h.logger.Printf("释放排名锁失败 direction=%s entity=%s: %v", direction, entityID, err)
		}
	}
}

// persistAndPublish 落库、回填缓存并发布评估完成事件，失败只记日志
func (h *MatchHandler) persistAndPublish(ctx context.Context, report *types.CompatibilityScore) {
	if err := h.storage.MySQL.SaveMatchEvaluation(ctx, report); err != nil {
		h.logger.Printf("保存匹配评估失败 candidate=%s job=%s: %v", report.CandidateID, report.JobID, err)
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheMatchReport(ctx, report); err != nil {
			h.logger.Printf("缓存匹配报告失败 candidate=%s job=%s: %v", report.CandidateID, report.JobID, err)
		}
	}

	if h.storage.RabbitMQ != nil {
		event := &storage.MatchEvaluatedEvent{
			CandidateID:    report.CandidateID,
			JobID:          report.JobID,
			OverallScore:   report.OverallScore,
			Recommendation: string(report.Recommendation),
		}
		if err := h.storage.RabbitMQ.PublishMatchEvaluated(ctx, event); err != nil {
			h.logger.Printf("发布匹配评估事件失败 candidate=%s job=%s: %v", report.CandidateID, report.JobID, err)
		}
	}
}

// isValidID 校验ID是否为UUID格式
func isValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.FromString(id)
	return err == nil
}
