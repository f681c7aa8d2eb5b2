package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQwenChatModel_RequiresAPIKey(t *testing.T) {
	_, err := NewQwenChatModel("", "qwen-plus", zerolog.Nop())
	assert.Error(t, err)
}

func TestQwenChatModel_Generate(t *testing.T) {
	var gotAuth string
	var gotReq chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "qwen-plus",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "你好"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	model, err := NewQwenChatModel("test-key", "qwen-plus", zerolog.Nop(), WithAPIURL(server.URL))
	require.NoError(t, err)

	msg, err := model.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("系统提示"),
		schema.UserMessage("用户输入"),
	})
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "你好", msg.Content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "qwen-plus", gotReq.Model)
	assert.Len(t, gotReq.Messages, 2)
}

func TestQwenChatModel_GenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	model, err := NewQwenChatModel("test-key", "", zerolog.Nop(), WithAPIURL(server.URL))
	require.NoError(t, err)

	_, err = model.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestQwenChatModel_GenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "choices": []}`))
	}))
	defer server.Close()

	model, err := NewQwenChatModel("test-key", "", zerolog.Nop(), WithAPIURL(server.URL))
	require.NoError(t, err)

	_, err = model.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	assert.Error(t, err)
}
