package memoryx

import "context"

// SessionRepository persists ordered message histories keyed by session.
//
// Implementations must keep appends to one session in insertion order even
// when called concurrently, create the session on its first message and
// return an empty history for unknown sessions.
type SessionRepository interface {
	// AddMessage appends message to its session, assigning ID and CreatedAt
	AddMessage(ctx context.Context, message *SessionMessage) error

	// GetMessages returns the session history in insertion order
	GetMessages(ctx context.Context, sessionID SessionID) ([]SessionMessage, error)

	// GetMessageCount returns the number of messages in a session
	GetMessageCount(ctx context.Context, sessionID SessionID) (int, error)

	// ListSessions lists sessions, most recently updated first
	ListSessions(ctx context.Context, limit, offset int) ([]*Session, error)

	// Close releases the underlying storage
	Close() error
}
