package memorysrv

import (
	"context"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type SessionService struct {
	repository memoryx.SessionRepository
	turns      memoryx.SessionLocks
}

func NewSessionService(repo memoryx.SessionRepository) *SessionService {
	logx.Info("Session service initialized")
	return &SessionService{repository: repo}
}

// GetSessionMemory creates a Memory instance for a session. Sessions are
// created by their first message, so an unknown id is not an error.
func (s *SessionService) GetSessionMemory(sessionID memoryx.SessionID) (memoryx.Memory, error) {
	if err := sessionID.Validate(); err != nil {
		logx.WithField("session_id", sessionID).WithError(err).Warn("Rejected session id")
		return nil, err
	}

	logx.WithField("session_id", sessionID).Debug("Getting session memory")
	return memoryx.NewSessionMemory(sessionID, s.repository), nil
}

// LockSession blocks until no other turn holds sessionID and returns the
// matching unlock. A turn holds it from the user append to the reply append.
func (s *SessionService) LockSession(sessionID memoryx.SessionID) (unlock func()) {
	return s.turns.Lock(sessionID)
}

// GetHistory returns the conversation of a session as llm messages
func (s *SessionService) GetHistory(ctx context.Context, sessionID memoryx.SessionID) ([]llm.Message, error) {
	mem, err := s.GetSessionMemory(sessionID)
	if err != nil {
		return nil, err
	}
	return mem.Messages(ctx)
}

// EffectiveLimit returns the page size ListSessions uses for limit
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ListSessions lists sessions, most recently updated first
func (s *SessionService) ListSessions(ctx context.Context, limit, offset int) ([]*memoryx.Session, error) {
	limit = EffectiveLimit(limit)
	if offset < 0 {
		offset = 0
	}

	logx.WithFields(logx.Fields{
		"limit":  limit,
		"offset": offset,
	}).Debug("Listing sessions")

	return s.repository.ListSessions(ctx, limit, offset)
}

// GetSessionWithMessages retrieves session with messages. An unknown session
// yields empty metadata and no messages.
func (s *SessionService) GetSessionWithMessages(ctx context.Context, sessionID memoryx.SessionID) (*memoryx.SessionWithMessages, error) {
	messages, err := s.repository.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session := memoryx.Session{
		ID:           sessionID,
		MessageCount: len(messages),
	}
	if len(messages) > 0 {
		session.CreatedAt = messages[0].CreatedAt
		session.UpdatedAt = messages[len(messages)-1].CreatedAt
	}

	return &memoryx.SessionWithMessages{
		Session:  session,
		Messages: messages,
	}, nil
}

// MessageCount returns the number of stored messages of a session
func (s *SessionService) MessageCount(ctx context.Context, sessionID memoryx.SessionID) (int, error) {
	return s.repository.GetMessageCount(ctx, sessionID)
}
