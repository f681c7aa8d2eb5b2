package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"talent-match-go/internal/config"
	"talent-match-go/internal/constants"
	"talent-match-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrCacheMiss 表示缓存中没有对应的key，包装底层的 redis.Nil
var ErrCacheMiss = redis.Nil

var redisTracer = otel.Tracer("talent-match-go/storage/redis")

// Redis 封装匹配结果缓存与分布式锁
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建Redis客户端连接
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("redis OpenTelemetry仪表化失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis(%s)失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// MatchCacheTTL 返回配置的匹配结果缓存过期时间
func (r *Redis) MatchCacheTTL() time.Duration {
	if r.config != nil && r.config.MatchCacheTTLSeconds > 0 {
		return time.Duration(r.config.MatchCacheTTLSeconds) * time.Second
	}
	return constants.DefaultRankingCacheTTL
}

// minScoreKeyPart 将minScore格式化为key片段，保证同一阈值总是命中同一缓存
func minScoreKeyPart(minScore float64) string {
	return strconv.FormatFloat(minScore, 'f', 2, 64)
}

// CacheJobRanking 缓存候选人的岗位排名结果
func (r *Redis) CacheJobRanking(ctx context.Context, candidateID string, limit int, minScore float64, matches []types.JobMatch) error {
	key := fmt.Sprintf(constants.KeyJobRanking, candidateID, limit, minScoreKeyPart(minScore))
	return r.setJSON(ctx, key, matches, r.MatchCacheTTL())
}

// GetCachedJobRanking 读取候选人的岗位排名缓存，未命中返回 ErrCacheMiss
func (r *Redis) GetCachedJobRanking(ctx context.Context, candidateID string, limit int, minScore float64) ([]types.JobMatch, error) {
	key := fmt.Sprintf(constants.KeyJobRanking, candidateID, limit, minScoreKeyPart(minScore))
	var matches []types.JobMatch
	if err := r.getJSON(ctx, key, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// CacheCandidateRanking 缓存岗位的候选人排名结果
func (r *Redis) CacheCandidateRanking(ctx context.Context, jobID string, limit int, minScore float64, matches []types.CandidateMatch) error {
	key := fmt.Sprintf(constants.KeyCandidateRanking, jobID, limit, minScoreKeyPart(minScore))
	return r.setJSON(ctx, key, matches, r.MatchCacheTTL())
}

// GetCachedCandidateRanking 读取岗位的候选人排名缓存，未命中返回 ErrCacheMiss
func (r *Redis) GetCachedCandidateRanking(ctx context.Context, jobID string, limit int, minScore float64) ([]types.CandidateMatch, error) {
	key := fmt.Sprintf(constants.KeyCandidateRanking, jobID, limit, minScoreKeyPart(minScore))
	var matches []types.CandidateMatch
	if err := r.getJSON(ctx, key, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// CacheMatchReport 缓存单对匹配报告
func (r *Redis) CacheMatchReport(ctx context.Context, report *types.CompatibilityScore) error {
	if report == nil {
		return fmt.Errorf("匹配报告不能为空")
	}
	key := fmt.Sprintf(constants.KeyMatchReport, report.CandidateID, report.JobID)
	return r.setJSON(ctx, key, report, constants.MatchReportCacheTTL)
}

// GetCachedMatchReport 读取单对匹配报告缓存，未命中返回 ErrCacheMiss
func (r *Redis) GetCachedMatchReport(ctx context.Context, candidateID, jobID string) (*types.CompatibilityScore, error) {
	key := fmt.Sprintf(constants.KeyMatchReport, candidateID, jobID)
	var report types.CompatibilityScore
	if err := r.getJSON(ctx, key, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// setJSON 序列化后写入STRING缓存
func (r *Redis) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	ctx, span := redisTracer.Start(ctx, "Redis.setJSON", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "SET"),
		attribute.String("db.redis.key", key),
		attribute.Int64("db.redis.expiration_ms", ttl.Milliseconds()),
	)

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("序列化缓存内容失败: %w", err)
	}
	span.SetAttributes(attribute.Int("db.redis.value_length", len(data)))

	if err := r.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// getJSON 读取STRING缓存并反序列化，key不存在时返回 ErrCacheMiss
func (r *Redis) getJSON(ctx context.Context, key string, dest interface{}) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	ctx, span := redisTracer.Start(ctx, "Redis.getJSON", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "GET"),
		attribute.String("db.redis.key", key),
	)

	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			// key不存在不算错误
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			span.SetStatus(codes.Ok, "cache miss")
			return ErrCacheMiss
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("反序列化缓存内容失败: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("db.redis.key_exists", true),
		attribute.Int("db.redis.value_length", len(data)),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

// AcquireRankingLock 尝试获取排名计算的分布式锁
// 成功返回锁持有者标识，锁被占用时返回空字符串
func (r *Redis) AcquireRankingLock(ctx context.Context, direction, entityID string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyRankingLock, direction, entityID)
	lockValue := fmt.Sprintf("%d", time.Now().UnixNano())

	ok, err := r.Client.SetNX(ctx, key, lockValue, constants.RankingLockTTL).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return lockValue, nil
	}
	return "", nil
}

// ReleaseRankingLock 释放分布式锁，Lua脚本保证只有持有者能释放
func (r *Redis) ReleaseRankingLock(ctx context.Context, direction, entityID, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyRankingLock, direction, entityID)
	script := `
        if redis.call("get", KEYS[1]) == ARGV[1] then
            return redis.call("del", KEYS[1])
        else
            return 0
        end
    `
	res, err := r.Client.Eval(ctx, script, []string{key}, lockValue).Result()
	if err != nil {
		return false, err
	}
	if released, ok := res.(int64); ok && released == 1 {
		return true, nil
	}
	return false, nil
}
