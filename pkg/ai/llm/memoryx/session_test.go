package memoryx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID_Validate(t *testing.T) {
	tests := []struct {
		id    SessionID
		valid bool
	}{
		{"user123", true},
		{"3f1c9b2e-0d4a-4b8e-9f00-1a2b3c4d5e6f", true},
		{"a.b_c-d", true},
		{"", false},
		{"   ", false},
		{"../x", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
		{SessionID(strings.Repeat("x", MaxSessionIDLength)), true},
		{SessionID(strings.Repeat("x", MaxSessionIDLength+1)), false},
	}

	for _, tt := range tests {
		err := tt.id.Validate()
		if tt.valid {
			assert.NoError(t, err, "id %q", tt.id)
		} else {
			assert.True(t, errx.IsCode(err, ErrCodeInvalidSessionID), "id %q: %v", tt.id, err)
		}
	}
}

func TestNewSessionID_IsValidAndUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NoError(t, a.Validate())
	assert.NotEqual(t, a, b)
}

func TestLLMMessageConversion(t *testing.T) {
	sm, err := FromLLMMessage("s1", llm.NewAssistantMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, "assistant", sm.Role)
	assert.False(t, sm.CreatedAt.IsZero())

	msg, err := sm.ToLLMMessage()
	require.NoError(t, err)
	assert.Equal(t, llm.NewAssistantMessage("hello"), msg)

	_, err = FromLLMMessage("s1", llm.Message{Role: "system", Content: "x"})
	assert.True(t, errx.IsCode(err, ErrCodeInvalidMessage))

	bad := SessionMessage{Role: "tool"}
	_, err = bad.ToLLMMessage()
	assert.Error(t, err)
}

func TestValidateMessage(t *testing.T) {
	assert.True(t, errx.IsCode(ValidateMessage(nil), ErrCodeInvalidMessage))
	assert.True(t, errx.IsCode(ValidateMessage(&SessionMessage{SessionID: "", Role: "user"}), ErrCodeInvalidSessionID))
	assert.True(t, errx.IsCode(ValidateMessage(&SessionMessage{SessionID: "s", Role: "bot"}), ErrCodeInvalidMessage))
	assert.NoError(t, ValidateMessage(&SessionMessage{SessionID: "s", Role: "user", Content: ""}))
}

func TestErrStorage(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrStorage("add_message", cause)

	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "add_message", err.Details["op"])
	assert.False(t, IsStorageError(cause))
}

// stubRepository serves fixed messages
type stubRepository struct {
	SessionRepository
	messages []SessionMessage
	added    []SessionMessage
}

func (s *stubRepository) GetMessages(ctx context.Context, id SessionID) ([]SessionMessage, error) {
	return s.messages, nil
}

func (s *stubRepository) AddMessage(ctx context.Context, m *SessionMessage) error {
	m.ID = int64(len(s.added) + 1)
	s.added = append(s.added, *m)
	return nil
}

func TestSessionMemory(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepository{messages: []SessionMessage{
		{ID: 1, SessionID: "s1", Role: "user", Content: "Hi"},
		{ID: 2, SessionID: "s1", Role: "assistant", Content: "Hello there"},
	}}
	mem := NewSessionMemory("s1", repo)

	assert.Equal(t, SessionID("s1"), mem.SessionID())

	msgs, err := mem.Messages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []llm.Message{llm.NewUserMessage("Hi"), llm.NewAssistantMessage("Hello there")}, msgs)

	require.NoError(t, mem.Add(ctx, llm.NewUserMessage("How are you?")))
	require.Len(t, repo.added, 1)
	assert.Equal(t, SessionID("s1"), repo.added[0].SessionID)
	assert.Equal(t, "How are you?", repo.added[0].Content)
}

func TestSessionMemory_CorruptRoleIsStorageError(t *testing.T) {
	repo := &stubRepository{messages: []SessionMessage{{ID: 1, SessionID: "s1", Role: "system", Content: "?"}}}

	_, err := NewSessionMemory("s1", repo).Messages(context.Background())
	assert.True(t, IsStorageError(err), "got %v", err)
}
