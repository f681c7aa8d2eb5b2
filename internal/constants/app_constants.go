package constants

import "time"

const (
	// 排名缓存过期时间，配置缺省时使用
	DefaultRankingCacheTTL = 5 * time.Minute

	// 单对匹配报告缓存过期时间
	MatchReportCacheTTL = 30 * time.Minute

	// 排名计算分布式锁的持有时间
	RankingLockTTL = 30 * time.Second

	// 批量评分单次请求允许的最大岗位数
	MaxBatchJobIDs = 50
)
