package memoryx

import (
	"strings"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/google/uuid"
)

// MaxSessionIDLength bounds session identifiers
const MaxSessionIDLength = 128

// SessionID is a unique identifier for a session
type SessionID string

// Validate checks that the id is safe to use as a key in every backend
func (id SessionID) Validate() error {
	s := string(id)
	switch {
	case strings.TrimSpace(s) == "":
		return ErrInvalidSessionID(id, "session id cannot be empty")
	case len(s) > MaxSessionIDLength:
		return ErrInvalidSessionID(id, "session id is too long")
	case strings.Contains(s, ".."):
		return ErrInvalidSessionID(id, "session id cannot contain '..'")
	case strings.ContainsAny(s, "/\\"):
		return ErrInvalidSessionID(id, "session id cannot contain path separators")
	case strings.Contains(s, "\x00"):
		return ErrInvalidSessionID(id, "session id cannot contain null bytes")
	}
	return nil
}

// Session is the metadata of a conversation
type Session struct {
	ID           SessionID `json:"id" db:"id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	MessageCount int       `json:"message_count" db:"message_count"`
}

// SessionMessage is a message as persisted in a session
type SessionMessage struct {
	ID        int64     `json:"id" db:"id"`
	SessionID SessionID `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionWithMessages combines session with its messages
type SessionWithMessages struct {
	Session  Session          `json:"session"`
	Messages []SessionMessage `json:"messages"`
}

// NewSessionID generates a new random session ID
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// ToLLMMessage converts SessionMessage to llm.Message
func (sm *SessionMessage) ToLLMMessage() (llm.Message, error) {
	role, err := llm.ParseRole(sm.Role)
	if err != nil {
		return llm.Message{}, err
	}
	return llm.Message{Role: role, Content: sm.Content}, nil
}

// FromLLMMessage creates SessionMessage from llm.Message
func FromLLMMessage(sessionID SessionID, msg llm.Message) (SessionMessage, error) {
	if !msg.Role.Valid() {
		return SessionMessage{}, ErrInvalidMessage(string(msg.Role))
	}
	return SessionMessage{
		SessionID: sessionID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateMessage checks a message before it is appended
func ValidateMessage(message *SessionMessage) error {
	if message == nil {
		return ErrInvalidMessage("")
	}
	if err := message.SessionID.Validate(); err != nil {
		return err
	}
	if !llm.Role(message.Role).Valid() {
		return ErrInvalidMessage(message.Role)
	}
	return nil
}
