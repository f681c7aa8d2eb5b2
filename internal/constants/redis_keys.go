package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// MatchModulePrefix 匹配模块
	MatchModulePrefix = "match"

	// EntityJobRanking 岗位排名实体（候选人→岗位方向）
	EntityJobRanking = "job_ranking"
	// EntityCandidateRanking 候选人排名实体（岗位→候选人方向）
	EntityCandidateRanking = "candidate_ranking"
	// EntityReport 匹配报告实体
	EntityReport = "report"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeyJobRanking 候选人的岗位排名缓存 (STRING, JSON)
	// 格式: app:match:job_ranking:{candidateID}:{limit}:{minScore}
	KeyJobRanking = AppPrefix + ":" + MatchModulePrefix + ":" + EntityJobRanking + ":%s:%d:%s"

	// KeyCandidateRanking 岗位的候选人排名缓存 (STRING, JSON)
	// 格式: app:match:candidate_ranking:{jobID}:{limit}:{minScore}
	KeyCandidateRanking = AppPrefix + ":" + MatchModulePrefix + ":" + EntityCandidateRanking + ":%s:%d:%s"

	// KeyMatchReport 单对匹配报告缓存 (STRING, JSON)
	// 格式: app:match:report:{candidateID}:{jobID}
	KeyMatchReport = AppPrefix + ":" + MatchModulePrefix + ":" + EntityReport + ":%s:%s"

	// KeyRankingLock 排名计算分布式锁 (STRING)
	// 格式: app:match:lock:{direction}:{entityID}
	KeyRankingLock = AppPrefix + ":" + MatchModulePrefix + ":" + EntityLock + ":%s:%s"
)
