package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"talent-match-go/internal/config"
	"talent-match-go/internal/matcher"
	"talent-match-go/internal/storage/models"
	"talent-match-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("talent-match-go/storage/mysql")

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		newCtx, _ := p.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			))

		db.Statement.Context = newCtx
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span := trace.SpanFromContext(db.Statement.Context)
		if !span.IsRecording() {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 记录不存在属于正常业务分支，不作为错误上报
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer: mysqlTracer,
		dbName: dbName,
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{db: db, cfg: cfg}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	return silentDB.AutoMigrate(
		&models.Candidate{},
		&models.CandidateVector{},
		&models.Job{},
		&models.JobVector{},
		&models.MatchEvaluation{},
	)
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// GetCandidateProfile 加载候选人画像及其嵌入向量
// 未找到时返回 matcher.ErrCandidateNotFound
func (m *MySQL) GetCandidateProfile(ctx context.Context, candidateID string) (*types.CandidateProfile, error) {
	var row models.Candidate
	if err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("候选人 %s: %w", candidateID, matcher.ErrCandidateNotFound)
		}
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}

	profile := &types.CandidateProfile{
		CandidateID:     row.CandidateID,
		Name:            row.Name,
		ExperienceYears: row.ExperienceYears,
	}
	if err := unmarshalJSONField(row.SkillsJSON, &profile.Skills); err != nil {
		return nil, fmt.Errorf("解析候选人技能失败: %w", err)
	}
	if err := unmarshalJSONField(row.EducationJSON, &profile.Education); err != nil {
		return nil, fmt.Errorf("解析候选人教育背景失败: %w", err)
	}
	if err := unmarshalJSONField(row.WorkHistoryJSON, &profile.WorkHistory); err != nil {
		return nil, fmt.Errorf("解析候选人工作经历失败: %w", err)
	}

	// 向量缺失不视为错误，由上层决定是否需要
	var vec models.CandidateVector
	if err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&vec).Error; err == nil {
		if err := json.Unmarshal(vec.VectorRepresentation, &profile.Embedding); err != nil {
			return nil, fmt.Errorf("解析候选人向量失败: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询候选人向量失败: %w", err)
	}

	return profile, nil
}

// GetJobRequirement 加载岗位要求及其嵌入向量
// 未找到时返回 matcher.ErrJobNotFound
func (m *MySQL) GetJobRequirement(ctx context.Context, jobID string) (*types.JobRequirement, error) {
	var row models.Job
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("岗位 %s: %w", jobID, matcher.ErrJobNotFound)
		}
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	job := &types.JobRequirement{
		JobID:              row.JobID,
		Title:              row.JobTitle,
		Company:            row.Company,
		Location:           row.Location,
		Description:        row.JobDescriptionText,
		MinYearsExperience: row.MinYearsExperience,
		MaxYearsExperience: row.MaxYearsExperience,
	}
	if err := unmarshalJSONField(row.RequiredSkillsJSON, &job.RequiredSkills); err != nil {
		return nil, fmt.Errorf("解析岗位必备技能失败: %w", err)
	}
	if err := unmarshalJSONField(row.PreferredSkillsJSON, &job.PreferredSkills); err != nil {
		return nil, fmt.Errorf("解析岗位加分技能失败: %w", err)
	}
	if err := unmarshalJSONField(row.EducationRequirementsJSON, &job.EducationRequirements); err != nil {
		return nil, fmt.Errorf("解析岗位学历要求失败: %w", err)
	}

	var vec models.JobVector
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&vec).Error; err == nil {
		if err := json.Unmarshal(vec.VectorRepresentation, &job.Embedding); err != nil {
			return nil, fmt.Errorf("解析岗位向量失败: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询岗位向量失败: %w", err)
	}

	return job, nil
}

// SaveMatchEvaluation 保存匹配评估结果
// (candidate_id, job_id) 冲突时按最新结果覆盖
func (m *MySQL) SaveMatchEvaluation(ctx context.Context, report *types.CompatibilityScore) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveMatchEvaluation",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMySQL,
			attribute.String("db.sql.table", "match_evaluations"),
			attribute.String("candidate.id", report.CandidateID),
			attribute.String("job.id", report.JobID),
		))
	defer span.End()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("序列化匹配报告失败: %w", err)
	}

	row := models.MatchEvaluation{
		CandidateID:        report.CandidateID,
		JobID:              report.JobID,
		OverallScore:       report.OverallScore,
		MatchPercentage:    report.MatchPercentage,
		RecommendationTier: string(report.Recommendation),
		ReportJSON:         reportJSON,
		EvaluatedAt:        time.Now(),
	}

	err = m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score", "match_percentage", "recommendation_tier", "report_json", "evaluated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("保存匹配评估失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SaveCandidateProfile 落库候选人画像及其向量（画像导入用）
func (m *MySQL) SaveCandidateProfile(ctx context.Context, profile *types.CandidateProfile) error {
	skills, err := models.SliceToJSON(profile.Skills)
	if err != nil {
		return fmt.Errorf("序列化候选人技能失败: %w", err)
	}
	education, err := models.SliceToJSON(profile.Education)
	if err != nil {
		return fmt.Errorf("序列化候选人教育背景失败: %w", err)
	}
	history, err := models.SliceToJSON(profile.WorkHistory)
	if err != nil {
		return fmt.Errorf("序列化候选人工作经历失败: %w", err)
	}

	row := models.Candidate{
		CandidateID:     profile.CandidateID,
		Name:            profile.Name,
		SkillsJSON:      skills,
		ExperienceYears: profile.ExperienceYears,
		EducationJSON:   education,
		WorkHistoryJSON: history,
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("保存候选人失败: %w", err)
		}
		if len(profile.Embedding) == 0 {
			return nil
		}
		vecBytes, err := json.Marshal(profile.Embedding)
		if err != nil {
			return fmt.Errorf("序列化候选人向量失败: %w", err)
		}
		vec := models.CandidateVector{
			CandidateID:           profile.CandidateID,
			VectorRepresentation:  vecBytes,
			EmbeddingModelVersion: "text-embedding-v3",
		}
		if err := tx.Save(&vec).Error; err != nil {
			return fmt.Errorf("保存候选人向量失败: %w", err)
		}
		return nil
	})
}

// SaveJobRequirement 落库岗位要求及其向量（岗位导入用）
func (m *MySQL) SaveJobRequirement(ctx context.Context, job *types.JobRequirement) error {
	required, err := models.SliceToJSON(job.RequiredSkills)
	if err != nil {
		return fmt.Errorf("序列化岗位必备技能失败: %w", err)
	}
	preferred, err := models.SliceToJSON(job.PreferredSkills)
	if err != nil {
		return fmt.Errorf("序列化岗位加分技能失败: %w", err)
	}
	education, err := models.SliceToJSON(job.EducationRequirements)
	if err != nil {
		return fmt.Errorf("序列化岗位学历要求失败: %w", err)
	}

	row := models.Job{
		JobID:                     job.JobID,
		JobTitle:                  job.Title,
		Company:                   job.Company,
		Location:                  job.Location,
		JobDescriptionText:        job.Description,
		RequiredSkillsJSON:        required,
		PreferredSkillsJSON:       preferred,
		MinYearsExperience:        job.MinYearsExperience,
		MaxYearsExperience:        job.MaxYearsExperience,
		EducationRequirementsJSON: education,
		Status:                    "ACTIVE",
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("保存岗位失败: %w", err)
		}
		if len(job.Embedding) == 0 {
			return nil
		}
		vecBytes, err := json.Marshal(job.Embedding)
		if err != nil {
			return fmt.Errorf("序列化岗位向量失败: %w", err)
		}
		vec := models.JobVector{
			JobID:                 job.JobID,
			VectorRepresentation:  vecBytes,
			EmbeddingModelVersion: "text-embedding-v3",
		}
		if err := tx.Save(&vec).Error; err != nil {
			return fmt.Errorf("保存岗位向量失败: %w", err)
		}
		return nil
	})
}

// unmarshalJSONField 解析可能为空的JSON列
func unmarshalJSONField(data []byte, dest interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

var _ matcher.ProfileStore = (*MySQL)(nil)
