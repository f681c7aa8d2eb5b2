package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用LLM模型模拟器
type MockChatModel struct {
	// 模拟响应
	mockResponse string
	// 用于测试的错误
	Err error
	// 记录最后一次请求的消息
	lastMessages []*schema.Message
}

// Generate 实现model.ChatModel接口
func (m *MockChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.lastMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	return &schema.Message{
		Role:    "assistant",
		Content: m.mockResponse,
	}, nil
}

// Stream 实现model.ChatModel接口
func (m *MockChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	// 测试中不需要流式响应
	return nil, nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestClassifyCriticalSkills(t *testing.T) {
	mock := &MockChatModel{mockResponse: `根据分析，结果如下：
{"critical": ["Go", "Kubernetes"]}`}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	critical, err := classifier.ClassifyCriticalSkills(context.Background(),
		"负责云原生平台开发，必须精通Go与Kubernetes。", []string{"Go", "Kubernetes", "MySQL", "Git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, critical)
}

func TestClassifyCriticalSkills_DropsUnknownSkills(t *testing.T) {
	// 模型发明了列表外的技能，应被丢弃；大小写差异按列表原始写法归一
	mock := &MockChatModel{mockResponse: `{"critical": ["go", "Blockchain", "mysql"]}`}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	critical, err := classifier.ClassifyCriticalSkills(context.Background(),
		"岗位描述", []string{"Go", "MySQL", "Redis"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "MySQL"}, critical)
}

func TestClassifyCriticalSkills_StripsBOMPrefix(t *testing.T) {
	// 部分模型返回内容以UTF-8 BOM开头，解析前应剥除
	mock := &MockChatModel{mockResponse: "\uFEFF" + `{"critical": ["Go"]}`}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	critical, err := classifier.ClassifyCriticalSkills(context.Background(),
		"岗位描述", []string{"Go", "MySQL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, critical)
}

func TestClassifyCriticalSkills_EmptyRequired(t *testing.T) {
	classifier := NewLLMCriticalSkillClassifier(&MockChatModel{}, nil)

	critical, err := classifier.ClassifyCriticalSkills(context.Background(), "岗位描述", nil)
	require.NoError(t, err)
	assert.Empty(t, critical)
}

func TestClassifyCriticalSkills_LLMError(t *testing.T) {
	mock := &MockChatModel{Err: errors.New("上游限流")}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	_, err := classifier.ClassifyCriticalSkills(context.Background(), "岗位描述", []string{"Go"})
	assert.Error(t, err)
}

func TestClassifyCriticalSkills_MalformedJSON(t *testing.T) {
	mock := &MockChatModel{mockResponse: "抱歉，我无法给出结果。"}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	_, err := classifier.ClassifyCriticalSkills(context.Background(), "岗位描述", []string{"Go"})
	assert.Error(t, err)
}

func TestClassifyCriticalSkills_TruncatesLongDescription(t *testing.T) {
	mock := &MockChatModel{mockResponse: `{"critical": ["Go"]}`}
	classifier := NewLLMCriticalSkillClassifier(mock, nil)

	long := make([]rune, 5000)
	for i := range long {
		long[i] = '长'
	}
	_, err := classifier.ClassifyCriticalSkills(context.Background(), string(long), []string{"Go"})
	require.NoError(t, err)

	require.Len(t, mock.lastMessages, 2)
	// 提示词中的岗位描述被截断到限定长度
	assert.Less(t, len([]rune(mock.lastMessages[1].Content)), 2500)
}
