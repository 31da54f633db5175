package memoryinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

type memorySession struct {
	session  memoryx.Session
	messages []memoryx.SessionMessage
}

// MemorySessionRepository keeps sessions in process memory. History lives
// as long as the repository.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[memoryx.SessionID]*memorySession
	nextID   int64
}

// NewMemorySessionRepository creates an empty in-memory repository
func NewMemorySessionRepository() *MemorySessionRepository {
	logx.Debug("In-memory session repository initialized")
	return &MemorySessionRepository{
		sessions: make(map[memoryx.SessionID]*memorySession),
	}
}

// AddMessage appends a message, creating the session on first use
func (r *MemorySessionRepository) AddMessage(ctx context.Context, message *memoryx.SessionMessage) error {
	if err := memoryx.ValidateMessage(message); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return memoryx.ErrStorage("add_message", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	s, ok := r.sessions[message.SessionID]
	if !ok {
		s = &memorySession{
			session: memoryx.Session{
				ID:        message.SessionID,
				CreatedAt: now,
			},
		}
		r.sessions[message.SessionID] = s
	}

	r.nextID++
	message.ID = r.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}

	s.messages = append(s.messages, *message)
	s.session.UpdatedAt = now
	s.session.MessageCount = len(s.messages)

	return nil
}

// GetMessages returns a copy of the session history
func (r *MemorySessionRepository) GetMessages(ctx context.Context, sessionID memoryx.SessionID) ([]memoryx.SessionMessage, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, memoryx.ErrStorage("get_messages", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return []memoryx.SessionMessage{}, nil
	}

	result := make([]memoryx.SessionMessage, len(s.messages))
	copy(result, s.messages)
	return result, nil
}

// GetMessageCount returns the number of messages in a session
func (r *MemorySessionRepository) GetMessageCount(ctx context.Context, sessionID memoryx.SessionID) (int, error) {
	if err := sessionID.Validate(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.sessions[sessionID]; ok {
		return len(s.messages), nil
	}
	return 0, nil
}

// ListSessions lists sessions, most recently updated first
func (r *MemorySessionRepository) ListSessions(ctx context.Context, limit, offset int) ([]*memoryx.Session, error) {
	r.mu.RLock()
	all := make([]*memorySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}

	sort.Slice(all, func(i, j int) bool {
		return lastMessageID(all[i]) > lastMessageID(all[j])
	})

	sessions := make([]*memoryx.Session, 0, len(all))
	for _, s := range all {
		session := s.session
		sessions = append(sessions, &session)
	}
	r.mu.RUnlock()

	return paginate(sessions, limit, offset), nil
}

// Close is a no-op for the in-memory repository
func (r *MemorySessionRepository) Close() error {
	return nil
}

func lastMessageID(s *memorySession) int64 {
	if len(s.messages) == 0 {
		return 0
	}
	return s.messages[len(s.messages)-1].ID
}

func paginate(sessions []*memoryx.Session, limit, offset int) []*memoryx.Session {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(sessions) {
		return []*memoryx.Session{}
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions
}
