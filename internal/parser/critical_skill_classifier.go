package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// 岗位描述在提示词中的最大字符数，超出部分截断
const maxJobDescriptionRunes = 1000

// criticalSkillPayload LLM返回的关键技能分类结果
type criticalSkillPayload struct {
	Critical []string `json:"critical"`
}

// LLMCriticalSkillClassifier 基于LLM从必备技能中识别关键(must-have)技能
// 实现 matcher.CriticalSkillClassifier
type LLMCriticalSkillClassifier struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	logger         *log.Logger
}

// CriticalSkillClassifierOption 分类器的配置选项
type CriticalSkillClassifierOption func(*LLMCriticalSkillClassifier)

// WithClassifierPromptTemplate 设置自定义提示词模板
func WithClassifierPromptTemplate(template string) CriticalSkillClassifierOption {
	return func(c *LLMCriticalSkillClassifier) {
		c.promptTemplate = template
	}
}

// NewLLMCriticalSkillClassifier 创建关键技能分类器
func NewLLMCriticalSkillClassifier(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...CriticalSkillClassifierOption) *LLMCriticalSkillClassifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	classifier := &LLMCriticalSkillClassifier{
		llmModel: llmModel,
		logger:   logger,
	}
	classifier.generatePromptTemplate()

	for _, opt := range options {
		opt(classifier)
	}
	return classifier
}

func (c *LLMCriticalSkillClassifier) generatePromptTemplate() {
	c.promptTemplate = `你是一位资深技术招聘专家。下面给出一个岗位的【岗位描述】和【必备技能列表】。
你的任务是从必备技能列表中挑出真正关键(must-have)的技能：缺失即基本不可录用的那部分。

**判定原则：**
- 关键技能必须是列表中已有的条目，禁止发明新技能或改写技能名称。
- 岗位描述中反复强调、标注"精通/必须/核心"的技能优先判定为关键。
- 通常关键技能是列表的一个子集(1-5项)，不要把全部技能都标成关键。

**输出格式：**
只输出一个合法的JSON对象，不要输出任何额外文本或Markdown标记：
{"critical": ["技能1", "技能2"]}

【岗位描述】:
"""
%s
"""

【必备技能列表】:
%s

请输出JSON结果。`
}

// ClassifyCriticalSkills 从必备技能中识别关键技能
// 返回结果保证是 requiredSkills 的子集；列表之外的条目会被丢弃
func (c *LLMCriticalSkillClassifier) ClassifyCriticalSkills(ctx context.Context, jobDescription string, requiredSkills []string) ([]string, error) {
	if c.llmModel == nil {
		return nil, fmt.Errorf("LLMCriticalSkillClassifier: llmModel is not initialized")
	}
	if len(requiredSkills) == 0 {
		return []string{}, nil
	}

	skillList := "- " + strings.Join(requiredSkills, "\n- ")
	userMsg := einoschema.UserMessage(fmt.Sprintf(c.promptTemplate,
		truncateRunes(jobDescription, maxJobDescriptionRunes), skillList))
	systemMsg := einoschema.SystemMessage("你是一位专注于岗位技能要求分析的AI招聘助手。")

	messages := []*einoschema.Message{systemMsg, userMsg}

	c.logger.Printf("[CriticalSkillClassifier] 请求分类 %d 项必备技能", len(requiredSkills))

	response, err := c.llmModel.Generate(ctx, messages)
	if err != nil {
		c.logger.Printf("[CriticalSkillClassifier] LLM call error: %v", err)
		return nil, fmt.Errorf("LLMCriticalSkillClassifier: LLM call failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("LLMCriticalSkillClassifier: LLM returned empty response")
	}

	processed := strings.TrimPrefix(response.Content, "\uFEFF")
	jsonStr := firstJSONObject(processed)
	if jsonStr == "" {
		return nil, fmt.Errorf("LLMCriticalSkillClassifier: failed to extract JSON from LLM response: %s", processed)
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var payload criticalSkillPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		fixed := repairJSONQuotes(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixed), &payload); jsonErr != nil {
			return nil, fmt.Errorf("LLMCriticalSkillClassifier: failed to unmarshal LLM JSON response after sanitization. Original error: %w. Sanitization error: %v. JSON: %s", err, jsonErr, jsonStr)
		}
	}

	// 丢弃列表之外的条目，保持原始大小写
	allowed := make(map[string]string, len(requiredSkills))
	for _, s := range requiredSkills {
		allowed[strings.ToLower(strings.TrimSpace(s))] = s
	}
	critical := make([]string, 0, len(payload.Critical))
	seen := make(map[string]bool, len(payload.Critical))
	for _, s := range payload.Critical {
		key := strings.ToLower(strings.TrimSpace(s))
		original, ok := allowed[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		critical = append(critical, original)
	}

	c.logger.Printf("[CriticalSkillClassifier] 分类结果: %d/%d 项关键", len(critical), len(requiredSkills))
	return critical, nil
}
