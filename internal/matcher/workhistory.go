package matcher

import (
	"context"

	"talent-match-go/internal/types"

	"github.com/rs/zerolog"
)

// 评估能力失败或缺失时的固定回退裁定
const (
	fallbackWorkScore       = 0.7
	fallbackProgression     = "Standard"
	emptyHistoryScore       = 0.5
	emptyHistoryProgression = "Unclear"
)

// WorkHistoryAssessor 工作经历相关性评估器
// 语义判断委托给注入的评估能力，失败时回退为固定默认值，绝不向调用方传播失败
type WorkHistoryAssessor struct {
	judge  WorkHistoryJudge
	logger zerolog.Logger
}

// NewWorkHistoryAssessor 创建评估器，judge 可为 nil（直接走回退路径）
func NewWorkHistoryAssessor(judge WorkHistoryJudge, logger zerolog.Logger) *WorkHistoryAssessor {
	return &WorkHistoryAssessor{
		judge:  judge,
		logger: logger,
	}
}

// Assess 评估候选人工作经历与岗位的相关性
func (a *WorkHistoryAssessor) Assess(ctx context.Context, job *types.JobRequirement, history []types.WorkExperience) types.WorkHistoryRelevance {
	if len(history) == 0 {
		// 无工作经历时给中性分
		return types.WorkHistoryRelevance{
			Score:                    emptyHistoryScore,
			RelevantPositions:        0,
			TotalPositions:           0,
			RecentExperienceRelevant: false,
			CareerProgression:        emptyHistoryProgression,
		}
	}

	verdict, err := a.assess(ctx, job, history)
	if err != nil {
		a.logger.Warn().Err(err).Str("job_id", job.JobID).
			Msg("工作经历评估能力不可用，使用回退裁定")
		return types.WorkHistoryRelevance{
			Score:                    fallbackWorkScore,
			RelevantPositions:        1,
			TotalPositions:           len(history),
			RecentExperienceRelevant: true,
			CareerProgression:        fallbackProgression,
		}
	}

	return types.WorkHistoryRelevance{
		Score:                    clamp01(float64(verdict.Score) / 100.0),
		RelevantPositions:        verdict.RelevantCount,
		TotalPositions:           len(history),
		RecentExperienceRelevant: verdict.RecentRelevant,
		CareerProgression:        verdict.Progression,
	}
}

func (a *WorkHistoryAssessor) assess(ctx context.Context, job *types.JobRequirement, history []types.WorkExperience) (*types.WorkHistoryVerdict, error) {
	if a.judge == nil {
		return nil, errJudgeUnavailable
	}

	// 只把最近的3段经历交给评估能力
	recent := history
	if len(recent) > 3 {
		recent = recent[:3]
	}

	verdict, err := a.judge.AssessRelevance(ctx, job, recent)
	if err != nil {
		return nil, err
	}
	if verdict == nil || verdict.Score < 0 || verdict.Score > 100 {
		return nil, errMalformedVerdict
	}
	return verdict, nil
}
