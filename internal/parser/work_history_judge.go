package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"talent-match-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

const (
	// 参与评估的最近经历条数
	maxHistoryEntries = 3
	// 提示词中岗位描述的最大字符数
	maxJudgeDescriptionRunes = 300
)

// workHistoryPayload LLM返回的工作经历裁定结果
type workHistoryPayload struct {
	Score          int    `json:"score"`
	RelevantCount  int    `json:"relevant_count"`
	RecentRelevant bool   `json:"recent_relevant"`
	Progression    string `json:"progression"`
}

// LLMWorkHistoryJudge 基于LLM评估候选人工作经历与岗位的相关性
// 实现 matcher.WorkHistoryJudge
type LLMWorkHistoryJudge struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	logger         *log.Logger
}

// WorkHistoryJudgeOption 裁定器的配置选项
type WorkHistoryJudgeOption func(*LLMWorkHistoryJudge)

// WithJudgePromptTemplate 设置自定义提示词模板
func WithJudgePromptTemplate(template string) WorkHistoryJudgeOption {
	return func(j *LLMWorkHistoryJudge) {
		j.promptTemplate = template
	}
}

// NewLLMWorkHistoryJudge 创建工作经历裁定器
func NewLLMWorkHistoryJudge(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...WorkHistoryJudgeOption) *LLMWorkHistoryJudge {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	judge := &LLMWorkHistoryJudge{
		llmModel: llmModel,
		logger:   logger,
	}
	judge.generatePromptTemplate()

	for _, opt := range options {
		opt(judge)
	}
	return judge
}

func (j *LLMWorkHistoryJudge) generatePromptTemplate() {
	j.promptTemplate = `你是一位资深招聘专家。下面给出一个岗位的核心信息和候选人最近的工作经历，
请评估这些经历与岗位的相关程度，并严格按照指定JSON格式输出。

**输出字段定义：**
1. "score": 整数(0-100)，工作经历整体相关性得分。
2. "relevant_count": 整数，给出的经历中与岗位直接相关的条数。
3. "recent_relevant": 布尔值，最近一段经历是否与岗位相关。
4. "progression": 字符串，对职业发展轨迹的一句话判断(如"Upward"、"Standard"、"Lateral")。

只输出一个合法的JSON对象，禁止输出任何额外文本或Markdown标记。

【岗位】: %s
【岗位描述】:
"""
%s
"""

【候选人最近工作经历】:
%s

请输出JSON结果。`
}

// AssessRelevance 评估候选人工作经历与岗位的相关性
// 只取最近的前三段经历参与评估
func (j *LLMWorkHistoryJudge) AssessRelevance(ctx context.Context, job *types.JobRequirement, history []types.WorkExperience) (*types.WorkHistoryVerdict, error) {
	if j.llmModel == nil {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: llmModel is not initialized")
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: empty work history")
	}

	recent := history
	if len(recent) > maxHistoryEntries {
		recent = recent[:maxHistoryEntries]
	}

	var sb strings.Builder
	for _, w := range recent {
		sb.WriteString(fmt.Sprintf("- %s at %s (%s)\n", w.Title, w.Company, w.Duration))
	}

	messages := []*einoschema.Message{
		einoschema.SystemMessage("你是一位专注于候选人职业轨迹分析的AI招聘助手。"),
		einoschema.UserMessage(fmt.Sprintf(j.promptTemplate,
			job.Title,
			truncateRunes(job.Description, maxJudgeDescriptionRunes),
			sb.String())),
	}

	j.logger.Printf("[WorkHistoryJudge] 评估岗位 %s 的 %d 段工作经历", job.JobID, len(recent))

	response, err := j.llmModel.Generate(ctx, messages)
	if err != nil {
		j.logger.Printf("[WorkHistoryJudge] LLM call error: %v", err)
		return nil, fmt.Errorf("LLMWorkHistoryJudge: LLM call failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: LLM returned empty response")
	}

	processed := strings.TrimPrefix(response.Content, "\uFEFF")
	jsonStr := firstJSONObject(processed)
	if jsonStr == "" {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: failed to extract JSON from LLM response: %s", processed)
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var payload workHistoryPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		fixed := repairJSONQuotes(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixed), &payload); jsonErr != nil {
			return nil, fmt.Errorf("LLMWorkHistoryJudge: failed to unmarshal LLM JSON response after sanitization. Original error: %w. Sanitization error: %v. JSON: %s", err, jsonErr, jsonStr)
		}
	}

	if payload.Score < 0 || payload.Score > 100 {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: score must be between 0 and 100, got %d", payload.Score)
	}
	if payload.RelevantCount < 0 || payload.RelevantCount > len(recent) {
		return nil, fmt.Errorf("LLMWorkHistoryJudge: relevant_count out of range, got %d for %d entries", payload.RelevantCount, len(recent))
	}
	if payload.Progression == "" {
		payload.Progression = "Standard"
	}

	return &types.WorkHistoryVerdict{
		Score:          payload.Score,
		RelevantCount:  payload.RelevantCount,
		RecentRelevant: payload.RecentRelevant,
		Progression:    payload.Progression,
	}, nil
}
