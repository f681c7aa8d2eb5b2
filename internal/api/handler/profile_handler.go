package handler

import (
	"context"
	"log"
	"os"

	"talent-match-go/internal/config"
	"talent-match-go/internal/storage"
	"talent-match-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// ProfileHandler 负责候选人画像与岗位要求的导入和索引维护
type ProfileHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	logger  *log.Logger
}

// NewProfileHandler 创建一个新的 ProfileHandler 实例
func NewProfileHandler(cfg *config.Config, storage *storage.Storage) *ProfileHandler {
	return &ProfileHandler{
		cfg:     cfg,
		storage: storage,
		logger:  log.New(os.Stdout, "[ProfileHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// candidateImportRequest 候选人画像导入请求体
// Embedding 可选，缺省时只入库不入向量索引
type candidateImportRequest struct {
	types.CandidateProfile
	Embedding []float64 `json:"embedding,omitempty"`
}

// jobImportRequest 岗位要求导入请求体
type jobImportRequest struct {
	types.JobRequirement
	Embedding []float64 `json:"embedding,omitempty"`
}

// HandleImportCandidate 处理候选人画像导入请求
// PUT /api/v1/candidates
func (h *ProfileHandler) HandleImportCandidate(ctx context.Context, c *app.RequestContext) {
	var req candidateImportRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体格式错误"})
		return
	}
	if req.CandidateID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			c.JSON(consts.StatusInternalServerError, map[string]string{"error": "生成候选人ID失败"})
			return
		}
		req.CandidateID = id.String()
	} else if !isValidID(req.CandidateID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "candidate_id 必须是有效的UUID"})
		return
	}

	profile := req.CandidateProfile
	profile.Embedding = req.Embedding

	if err := h.storage.MySQL.SaveCandidateProfile(ctx, &profile); err != nil {
		h.logger.Printf("保存候选人画像失败 candidate=%s: %v", profile.CandidateID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "保存候选人画像失败"})
		return
	}

	if len(profile.Embedding) > 0 {
		err := h.storage.Qdrant.UpsertPoint(ctx, h.cfg.Qdrant.CandidateCollection,
			profile.CandidateID, profile.Embedding,
			map[string]interface{}{"name": profile.Name})
		if err != nil {
			// 向量索引失败不回滚MySQL，该候选人暂时无法被检索但可被直接评分
			h.logger.Printf("候选人向量索引失败 candidate=%s: %v", profile.CandidateID, err)
			c.JSON(consts.StatusOK, map[string]interface{}{
				"message":      "画像已保存，向量索引失败",
				"candidate_id": profile.CandidateID,
				"indexed":      false,
			})
			return
		}
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message":      "候选人画像导入成功",
		"candidate_id": profile.CandidateID,
		"indexed":      len(profile.Embedding) > 0,
	})
}

// HandleImportJob 处理岗位要求导入请求
// PUT /api/v1/jobs
func (h *ProfileHandler) HandleImportJob(ctx context.Context, c *app.RequestContext) {
	var req jobImportRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "请求体格式错误"})
		return
	}
	if req.JobID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			c.JSON(consts.StatusInternalServerError, map[string]string{"error": "生成岗位ID失败"})
			return
		}
		req.JobID = id.String()
	} else if !isValidID(req.JobID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "job_id 必须是有效的UUID"})
		return
	}
	if req.Title == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "title 不能为空"})
		return
	}

	job := req.JobRequirement
	job.Embedding = req.Embedding

	if err := h.storage.MySQL.SaveJobRequirement(ctx, &job); err != nil {
		h.logger.Printf("保存岗位要求失败 job=%s: %v", job.JobID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "保存岗位要求失败"})
		return
	}

	if len(job.Embedding) > 0 {
		err := h.storage.Qdrant.UpsertPoint(ctx, h.cfg.Qdrant.JobCollection,
			job.JobID, job.Embedding,
			map[string]interface{}{"title": job.Title})
		if err != nil {
			h.logger.Printf("岗位向量索引失败 job=%s: %v", job.JobID, err)
			c.JSON(consts.StatusOK, map[string]interface{}{
				"message": "岗位已保存，向量索引失败",
				"job_id":  job.JobID,
				"indexed": false,
			})
			return
		}
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message": "岗位要求导入成功",
		"job_id":  job.JobID,
		"indexed": len(job.Embedding) > 0,
	})
}

// HandleDeindexCandidate 将候选人移出向量索引(画像数据保留)
// DELETE /api/v1/candidates/:candidate_id/index
func (h *ProfileHandler) HandleDeindexCandidate(ctx context.Context, c *app.RequestContext) {
	candidateID := c.Param("candidate_id")
	if !isValidID(candidateID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "candidate_id 必须是有效的UUID"})
		return
	}

	if err := h.storage.Qdrant.DeletePoint(ctx, h.cfg.Qdrant.CandidateCollection, candidateID); err != nil {
		h.logger.Printf("移除候选人向量索引失败 candidate=%s: %v", candidateID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "移除向量索引失败"})
		return
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message":      "候选人已移出向量索引",
		"candidate_id": candidateID,
	})
}

// HandleDeindexJob 将岗位移出向量索引(岗位数据保留)
// DELETE /api/v1/jobs/:job_id/index
func (h *ProfileHandler) HandleDeindexJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if !isValidID(jobID) {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "job_id 必须是有效的UUID"})
		return
	}

	if err := h.storage.Qdrant.DeletePoint(ctx, h.cfg.Qdrant.JobCollection, jobID); err != nil {
		h.logger.Printf("移除岗位向量索引失败 job=%s: %v", jobID, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "移除向量索引失败"})
		return
	}

	c.JSON(consts.StatusOK, map[string]interface{}{
		"message": "岗位已移出向量索引",
		"job_id":  jobID,
	})
}
