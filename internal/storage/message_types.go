package storage

import "time"

// MatchEvaluatedEvent 匹配评估完成事件
// 发布到配置的topic交换机，供下游(通知、报表)消费
type MatchEvaluatedEvent struct {
	CandidateID    string    `json:"candidate_id"`
	JobID          string    `json:"job_id"`
	OverallScore   int       `json:"overall_score"`
	Recommendation string    `json:"recommendation"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}
