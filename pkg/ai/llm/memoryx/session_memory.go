package memoryx

import (
	"context"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

// Memory is a conversation history bound to one session
type Memory interface {
	Messages(ctx context.Context) ([]llm.Message, error)
	Add(ctx context.Context, message llm.Message) error
	SessionID() SessionID
}

// SessionMemory implements Memory on top of a SessionRepository
type SessionMemory struct {
	sessionID  SessionID
	repository SessionRepository
}

// NewSessionMemory creates memory bound to a session
func NewSessionMemory(sessionID SessionID, repo SessionRepository) *SessionMemory {
	return &SessionMemory{
		sessionID:  sessionID,
		repository: repo,
	}
}

// Messages returns the session history in insertion order
func (m *SessionMemory) Messages(ctx context.Context) ([]llm.Message, error) {
	sessionMessages, err := m.repository.GetMessages(ctx, m.sessionID)
	if err != nil {
		logx.WithField("session_id", m.sessionID).WithError(err).Error("Failed to get messages from repository")
		return nil, err
	}

	messages := make([]llm.Message, 0, len(sessionMessages))
	for _, sm := range sessionMessages {
		msg, err := sm.ToLLMMessage()
		if err != nil {
			logx.WithFields(logx.Fields{
				"session_id": m.sessionID,
				"message_id": sm.ID,
			}).WithError(err).Error("Stored message is corrupt")
			return nil, ErrStorage("decode", err)
		}
		messages = append(messages, msg)
	}

	logx.WithFields(logx.Fields{
		"session_id":    m.sessionID,
		"message_count": len(messages),
	}).Debug("Messages retrieved successfully")

	return messages, nil
}

// Add appends a message to the session
func (m *SessionMemory) Add(ctx context.Context, message llm.Message) error {
	sessionMsg, err := FromLLMMessage(m.sessionID, message)
	if err != nil {
		return err
	}

	if err := m.repository.AddMessage(ctx, &sessionMsg); err != nil {
		logx.WithFields(logx.Fields{
			"session_id": m.sessionID,
			"role":       message.Role,
		}).WithError(err).Error("Failed to add message to repository")
		return err
	}

	logx.WithFields(logx.Fields{
		"session_id": m.sessionID,
		"message_id": sessionMsg.ID,
		"role":       message.Role,
	}).Debug("Message added successfully")
	return nil
}

// SessionID returns the bound session ID
func (m *SessionMemory) SessionID() SessionID {
	return m.sessionID
}
