package openai

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

type capturedRequest struct {
	Model       string           `json:"model"`
	Temperature *float64         `json:"temperature"`
	Messages    []map[string]any `json:"messages"`
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(raw, captured))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gemini-2.5-flash",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello there"}}
  ],
  "usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
}`

func TestOpenAIProvider_Chat(t *testing.T) {
	var captured capturedRequest
	srv := newCompletionServer(t, http.StatusOK, completionBody, &captured)

	p := NewGeminiProvider("test-key", WithBaseURL(srv.URL+"/"))
	temp := 0.7

	resp, err := p.Chat(context.Background(), []llm.Message{
		llm.NewUserMessage("Hi"),
		llm.NewAssistantMessage("Yo"),
		llm.NewUserMessage("Again"),
	}, llm.ChatOptions{Temperature: &temp, SystemPrompt: "be brief"})
	require.NoError(t, err)

	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, llm.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Hello there", resp.Message.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	assert.Equal(t, "gemini-2.5-flash", captured.Model)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, *captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0]["role"])
	assert.Equal(t, "user", captured.Messages[1]["role"])
	assert.Equal(t, "assistant", captured.Messages[2]["role"])
	assert.Equal(t, "Again", captured.Messages[3]["content"])
}

func TestOpenAIProvider_ChatNoChoices(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)

	p := NewOpenAIProvider("test-key", WithBaseURL(srv.URL+"/"))
	_, err := p.Chat(context.Background(), []llm.Message{llm.NewUserMessage("Hi")}, llm.ChatOptions{Model: "m"})
	assert.Error(t, err)
}

func TestOpenAIProvider_ChatHTTPError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusUnauthorized,
		`{"error":{"message":"bad key","type":"invalid_request_error"}}`, nil)

	p := NewOpenAIProvider("test-key", WithBaseURL(srv.URL+"/"))
	_, err := p.Chat(context.Background(), []llm.Message{llm.NewUserMessage("Hi")}, llm.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}
