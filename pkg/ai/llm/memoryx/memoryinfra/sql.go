package memoryinfra

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// SQLiteInMemory keeps the database for the lifetime of the process
	SQLiteInMemory = ":memory:"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id, id)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_messages (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id, id)`,
	},
}

// SQLSessionRepository stores sessions in SQLite or PostgreSQL through sqlx.
// Message IDs come from the table's auto-increment key, which fixes the
// append order of every session.
type SQLSessionRepository struct {
	db *sqlx.DB
}

// NewSQLSessionRepository wraps an open database. Call Migrate before use.
func NewSQLSessionRepository(db *sqlx.DB) *SQLSessionRepository {
	logx.WithField("driver", db.DriverName()).Info("SQL session repository initialized")
	return &SQLSessionRepository{db: db}
}

// OpenSQLite opens (or creates) a SQLite database at path and migrates it
func OpenSQLite(ctx context.Context, path string) (*SQLSessionRepository, error) {
	if path != SQLiteInMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, memoryx.ErrStorage("open", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	db, err := sqlx.Open(DriverSQLite, path)
	if err != nil {
		return nil, memoryx.ErrStorage("open", err)
	}

	// SQLite has one writer; one connection also keeps a :memory: database shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if path != SQLiteInMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, memoryx.ErrStorage("open", fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	repo := NewSQLSessionRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logx.WithField("path", path).Info("SQLite session store ready")
	return repo, nil
}

// OpenPostgres connects to PostgreSQL with dsn and migrates the schema
func OpenPostgres(ctx context.Context, dsn string) (*SQLSessionRepository, error) {
	db, err := sqlx.ConnectContext(ctx, DriverPostgres, dsn)
	if err != nil {
		return nil, memoryx.ErrStorage("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	maxOpenConns := 25
	maxIdleConns := 5
	connMaxLifetime := 5 * time.Minute

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	logx.WithFields(logx.Fields{
		"max_open_conns": maxOpenConns,
		"max_idle_conns": maxIdleConns,
		"conn_lifetime":  connMaxLifetime,
	}).Info("Database connection pool configured")

	repo := NewSQLSessionRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates the tables if they do not exist
func (r *SQLSessionRepository) Migrate(ctx context.Context) error {
	stmts, ok := schemas[r.db.DriverName()]
	if !ok {
		return memoryx.ErrStorage("migrate", fmt.Errorf("unsupported driver %q", r.db.DriverName()))
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			logx.WithError(err).Error("Failed to migrate session schema")
			return memoryx.ErrStorage("migrate", err)
		}
	}
	return nil
}

// AddMessage upserts the session and inserts the message in one transaction
func (r *SQLSessionRepository) AddMessage(ctx context.Context, message *memoryx.SessionMessage) error {
	if err := memoryx.ValidateMessage(message); err != nil {
		return err
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		logx.WithError(err).Error("Failed to begin transaction")
		return memoryx.ErrStorage("add_message", err)
	}
	defer tx.Rollback()

	upsertSession := r.db.Rebind(`
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at
	`)
	if _, err := tx.ExecContext(ctx, upsertSession,
		string(message.SessionID),
		message.CreatedAt,
		message.CreatedAt,
	); err != nil {
		logx.WithError(err).Error("Failed to upsert session")
		return memoryx.ErrStorage("add_message", err)
	}

	insertMessage := r.db.Rebind(`
		INSERT INTO session_messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	if err := tx.QueryRowxContext(ctx, insertMessage,
		string(message.SessionID),
		message.Role,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		logx.WithError(err).Error("Failed to add message")
		return memoryx.ErrStorage("add_message", err)
	}

	if err := tx.Commit(); err != nil {
		logx.WithError(err).Error("Failed to commit message")
		return memoryx.ErrStorage("add_message", err)
	}

	logx.WithFields(logx.Fields{
		"session_id": message.SessionID,
		"message_id": message.ID,
	}).Debug("Message persisted")
	return nil
}

// GetMessages retrieves all messages for a session in insertion order
func (r *SQLSessionRepository) GetMessages(ctx context.Context, sessionID memoryx.SessionID) ([]memoryx.SessionMessage, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, err
	}

	query := r.db.Rebind(`
		SELECT id, session_id, role, content, created_at
		FROM session_messages
		WHERE session_id = ?
		ORDER BY id ASC
	`)

	messages := []memoryx.SessionMessage{}
	if err := sqlx.SelectContext(ctx, r.db, &messages, query, string(sessionID)); err != nil {
		logx.WithError(err).Error("Failed to get messages")
		return nil, memoryx.ErrStorage("get_messages", err)
	}

	return messages, nil
}

// GetMessageCount returns the number of messages in a session
func (r *SQLSessionRepository) GetMessageCount(ctx context.Context, sessionID memoryx.SessionID) (int, error) {
	if err := sessionID.Validate(); err != nil {
		return 0, err
	}

	query := r.db.Rebind(`SELECT COUNT(*) FROM session_messages WHERE session_id = ?`)

	var count int
	if err := r.db.QueryRowxContext(ctx, query, string(sessionID)).Scan(&count); err != nil {
		return 0, memoryx.ErrStorage("count_messages", err)
	}
	return count, nil
}

// ListSessions lists sessions, most recently updated first
func (r *SQLSessionRepository) ListSessions(ctx context.Context, limit, offset int) ([]*memoryx.Session, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.Rebind(`
		SELECT s.id, s.created_at, s.updated_at, COUNT(m.id) AS message_count
		FROM sessions s
		LEFT JOIN session_messages m ON m.session_id = s.id
		GROUP BY s.id, s.created_at, s.updated_at
		ORDER BY MAX(m.id) DESC, s.id ASC
		LIMIT ? OFFSET ?
	`)

	sessions := []*memoryx.Session{}
	if err := sqlx.SelectContext(ctx, r.db, &sessions, query, limit, offset); err != nil {
		logx.WithError(err).Error("Failed to list sessions")
		return nil, memoryx.ErrStorage("list_sessions", err)
	}

	return sessions, nil
}

// Close closes the database
func (r *SQLSessionRepository) Close() error {
	return r.db.Close()
}
