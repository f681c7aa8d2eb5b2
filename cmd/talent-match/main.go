package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent-match-go/internal/api/handler"
	"talent-match-go/internal/api/router"
	"talent-match-go/internal/config"
	"talent-match-go/internal/llm"
	appCoreLogger "talent-match-go/internal/logger"
	"talent-match-go/internal/matcher"
	"talent-match-go/internal/parser"
	"talent-match-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "talent-match-go" //nolint:gochecknoglobals
)

// @title Talent Match API
// @version 1.0
// @description 人岗双向匹配服务的API文档
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	storageManager, err := storage.NewStorage(cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 可注入能力: LLM关键技能分类与工作经历评估
	// 未配置API密钥时注入nil，评分器内部回退到确定性策略
	var classifier matcher.CriticalSkillClassifier
	var judge matcher.WorkHistoryJudge
	if cfg.Aliyun.APIKey != "" {
		chatModel, err := llm.NewQwenChatModel(
			cfg.Aliyun.APIKey,
			cfg.Aliyun.Model,
			appCoreLogger.Logger,
			llm.WithAPIURL(cfg.Aliyun.APIURL),
		)
		if err != nil {
			glog.Fatalf("初始化通义千问聊天模型失败: %v", err)
		}
		glog.Info("通义千问聊天模型初始化成功")

		classifier = parser.NewLLMCriticalSkillClassifier(chatModel, newParserLogger(cfg, "[CriticalSkills] "))
		judge = parser.NewLLMWorkHistoryJudge(chatModel, newParserLogger(cfg, "[WorkHistory] "))
	} else {
		glog.Warn("未配置阿里云API密钥，关键技能分类与工作经历评估将使用内置回退策略")
	}

	scorer := matcher.NewCompatibilityScorer(classifier, judge, appCoreLogger.Logger)
	bidiMatcher := matcher.NewBidirectionalMatcher(
		storageManager.MySQL,
		storageManager.Qdrant,
		scorer,
		cfg.Qdrant.CandidateCollection,
		cfg.Qdrant.JobCollection,
		appCoreLogger.Logger,
	)
	glog.Info("匹配引擎初始化成功")

	matchHandler := handler.NewMatchHandler(cfg, storageManager, bidiMatcher)
	profileHandler := handler.NewProfileHandler(cfg, storageManager)

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, matchHandler, profileHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	zl := appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	zl = zl.With().Str("app", serviceName).Str("version", version).Logger()
	appCoreLogger.Logger = zl

	// 将Hertz的全局日志对接到zerolog
	glog.SetLogger(hertzadapter.From(zl))
}

// newParserLogger 为LLM解析组件创建stdlib logger，非debug级别时丢弃输出
func newParserLogger(cfg *config.Config, prefix string) *log.Logger {
	if cfg.Logger.Level == "debug" {
		return log.New(os.Stderr, prefix, log.LstdFlags|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}
