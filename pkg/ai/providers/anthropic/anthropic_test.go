package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProvider_Chat(t *testing.T) {
	var captured struct {
		Model     string           `json:"model"`
		MaxTokens int              `json:"max_tokens"`
		System    []map[string]any `json:"system"`
		Messages  []map[string]any `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "I'm "}, {"type": "text", "text": "fine"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 4, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL+"/"), WithDefaultModel("claude-test"))

	resp, err := p.Chat(context.Background(), []llm.Message{
		llm.NewUserMessage("Hi"),
		llm.NewAssistantMessage("Hello there"),
		llm.NewUserMessage("How are you?"),
	}, llm.ChatOptions{SystemPrompt: "be kind"})
	require.NoError(t, err)

	assert.Equal(t, "I'm fine", resp.Message.Content)
	assert.Equal(t, llm.RoleAssistant, resp.Message.Role)
	assert.Equal(t, 7, resp.Usage.TotalTokens)

	assert.Equal(t, "claude-test", captured.Model)
	assert.Equal(t, DefaultMaxTokens, captured.MaxTokens)
	require.Len(t, captured.System, 1)
	assert.Equal(t, "be kind", captured.System[0]["text"])
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "assistant", captured.Messages[1]["role"])
}

func TestAnthropicProvider_ChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", WithBaseURL(srv.URL+"/"))
	_, err := p.Chat(context.Background(), []llm.Message{llm.NewUserMessage("Hi")}, llm.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic messages")
}
