package orchestator

import "github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"

// ChatRequest is one user turn sent over HTTP
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"` // empty starts a new session
}

// ChatResponse is the assistant reply for a turn
type ChatResponse struct {
	Response  string     `json:"response"`
	SessionID string     `json:"session_id"`
	Model     string     `json:"model,omitempty"`
	Usage     *UsageInfo `json:"usage,omitempty"`
}

// UsageInfo contains token usage information
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SessionList is a page of sessions
type SessionList struct {
	Sessions []*memoryx.Session `json:"sessions"`
	Count    int                `json:"count"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// SessionMessages is the stored history of one session
type SessionMessages struct {
	SessionID string                   `json:"session_id"`
	Session   memoryx.Session          `json:"session"`
	Messages  []memoryx.SessionMessage `json:"messages"`
}
