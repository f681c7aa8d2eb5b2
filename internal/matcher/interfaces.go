package matcher

import (
	"context"

	"talent-match-go/internal/types"
)

//
// 匹配引擎消费的外部协作能力
// 实现由调用方注入，引擎内部不做超时与重试，由调用方在接口外组合
//

// Neighbor 向量索引返回的一个近邻条目
// Distance 为余弦距离，相似度 = 1 - Distance
type Neighbor struct {
	ID       string
	Distance float64
}

// VectorIndex 向量最近邻检索接口
type VectorIndex interface {
	// NearestNeighbors 按距离升序返回指定集合中与查询向量最近的k个条目
	NearestNeighbors(ctx context.Context, collection string, queryVector []float64, k int) ([]Neighbor, error)
}

// ProfileStore 画像与岗位要求的加载接口
type ProfileStore interface {
	// GetCandidateProfile 加载候选人画像，未找到时返回 ErrCandidateNotFound
	GetCandidateProfile(ctx context.Context, candidateID string) (*types.CandidateProfile, error)

	// GetJobRequirement 加载岗位要求，未找到时返回 ErrJobNotFound
	GetJobRequirement(ctx context.Context, jobID string) (*types.JobRequirement, error)
}

// CriticalSkillClassifier 关键技能分类能力
// 失败时引擎回退为必备技能列表的前三项，错误不向调用方传播
type CriticalSkillClassifier interface {
	// ClassifyCriticalSkills 从必备技能中识别关键(must-have)技能
	ClassifyCriticalSkills(ctx context.Context, jobDescription string, requiredSkills []string) ([]string, error)
}

// WorkHistoryJudge 工作经历相关性评估能力
// 失败时引擎回退为固定的默认裁定，错误不向调用方传播
type WorkHistoryJudge interface {
	// AssessRelevance 评估候选人工作经历与岗位的相关性
	AssessRelevance(ctx context.Context, job *types.JobRequirement, history []types.WorkExperience) (*types.WorkHistoryVerdict, error)
}
