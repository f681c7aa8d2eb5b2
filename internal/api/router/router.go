package router

import (
	"context"

	"talent-match-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, matchHandler *handler.MatchHandler, profileHandler *handler.ProfileHandler) {
	api := h.Group("/api/v1")

	// 单对与批量评分
	api.POST("/compatibility/score", matchHandler.HandleComputeScore)
	api.POST("/compatibility/batch", matchHandler.HandleBatchScore)

	// 双向排名
	api.GET("/candidates/:candidate_id/matching-jobs", matchHandler.HandleMatchingJobs)
	api.GET("/jobs/:job_id/matching-candidates", matchHandler.HandleMatchingCandidates)

	// 画像/岗位导入与索引维护
	api.PUT("/candidates", profileHandler.HandleImportCandidate)
	api.PUT("/jobs", profileHandler.HandleImportJob)
	api.DELETE("/candidates/:candidate_id/index", profileHandler.HandleDeindexCandidate)
	api.DELETE("/jobs/:job_id/index", profileHandler.HandleDeindexJob)

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
