package matcher

import "errors"

// 引擎对外暴露的错误分类
// 外部能力失败(分类器/评估器)与批处理单条失败均在引擎内部恢复，不会以错误形式出现
var (
	// ErrCandidateNotFound 候选人ID无法解析为已存储的画像
	ErrCandidateNotFound = errors.New("候选人画像不存在")

	// ErrJobNotFound 岗位ID无法解析为已存储的岗位要求
	ErrJobNotFound = errors.New("岗位要求不存在")
)

// 引擎内部的恢复信号，仅用于触发回退，不会离开本包
var (
	errJudgeUnavailable = errors.New("工作经历评估能力未注入")
	errMalformedVerdict = errors.New("工作经历评估结果格式非法")
)
