package memoryinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository keeps each session as a Redis list. RPUSH is atomic,
// so the list position is the append order and doubles as the message ID.
//
// Keys (under prefix):
//
//	messages:<id>  list of JSON messages
//	session:<id>   hash with created_at / updated_at
//	sessions       sorted set of session ids scored by last update
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

type redisMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRedisSessionRepository wraps an existing client
func NewRedisSessionRepository(client *redis.Client, prefix string) *RedisSessionRepository {
	logx.WithField("prefix", prefix).Info("Redis session repository initialized")
	return &RedisSessionRepository{client: client, prefix: prefix}
}

// OpenRedis connects with opts and verifies the connection
func OpenRedis(ctx context.Context, opts *redis.Options, prefix string) (*RedisSessionRepository, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, memoryx.ErrStorage("open", err)
	}
	return NewRedisSessionRepository(client, prefix), nil
}

func (r *RedisSessionRepository) messagesKey(id memoryx.SessionID) string {
	return r.prefix + "messages:" + string(id)
}

func (r *RedisSessionRepository) sessionKey(id memoryx.SessionID) string {
	return r.prefix + "session:" + string(id)
}

func (r *RedisSessionRepository) indexKey() string {
	return r.prefix + "sessions"
}

// AddMessage appends a message and updates the session metadata atomically
func (r *RedisSessionRepository) AddMessage(ctx context.Context, message *memoryx.SessionMessage) error {
	if err := memoryx.ValidateMessage(message); err != nil {
		return err
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(redisMessage{
		Role:      message.Role,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	})
	if err != nil {
		return memoryx.ErrMessageSerializationFailed(err)
	}

	ts := message.CreatedAt.Format(time.RFC3339Nano)

	var push *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		push = pipe.RPush(ctx, r.messagesKey(message.SessionID), payload)
		pipe.HSetNX(ctx, r.sessionKey(message.SessionID), "created_at", ts)
		pipe.HSet(ctx, r.sessionKey(message.SessionID), "updated_at", ts)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(message.CreatedAt.UnixMicro()),
			Member: string(message.SessionID),
		})
		return nil
	})
	if err != nil {
		logx.WithError(err).Error("Failed to add message")
		return memoryx.ErrStorage("add_message", err)
	}

	message.ID = push.Val()
	return nil
}

// GetMessages returns the session list in order
func (r *RedisSessionRepository) GetMessages(ctx context.Context, sessionID memoryx.SessionID) ([]memoryx.SessionMessage, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, err
	}

	raw, err := r.client.LRange(ctx, r.messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		logx.WithError(err).Error("Failed to get messages")
		return nil, memoryx.ErrStorage("get_messages", err)
	}

	messages := make([]memoryx.SessionMessage, 0, len(raw))
	for i, item := range raw {
		var m redisMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, memoryx.ErrStorage("decode", err)
		}
		messages = append(messages, memoryx.SessionMessage{
			ID:        int64(i + 1),
			SessionID: sessionID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return messages, nil
}

// GetMessageCount returns the list length
func (r *RedisSessionRepository) GetMessageCount(ctx context.Context, sessionID memoryx.SessionID) (int, error) {
	if err := sessionID.Validate(); err != nil {
		return 0, err
	}

	n, err := r.client.LLen(ctx, r.messagesKey(sessionID)).Result()
	if err != nil {
		return 0, memoryx.ErrStorage("count_messages", err)
	}
	return int(n), nil
}

// ListSessions reads the index newest first
func (r *RedisSessionRepository) ListSessions(ctx context.Context, limit, offset int) ([]*memoryx.Session, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	ids, err := r.client.ZRevRange(ctx, r.indexKey(), int64(offset), stop).Result()
	if err != nil {
		return nil, memoryx.ErrStorage("list_sessions", err)
	}

	sessions := make([]*memoryx.Session, 0, len(ids))
	for _, id := range ids {
		sid := memoryx.SessionID(id)

		meta, err := r.client.HGetAll(ctx, r.sessionKey(sid)).Result()
		if err != nil {
			return nil, memoryx.ErrStorage("list_sessions", err)
		}
		count, err := r.client.LLen(ctx, r.messagesKey(sid)).Result()
		if err != nil {
			return nil, memoryx.ErrStorage("list_sessions", err)
		}

		session := &memoryx.Session{ID: sid, MessageCount: int(count)}
		session.CreatedAt = parseRedisTime(meta["created_at"])
		session.UpdatedAt = parseRedisTime(meta["updated_at"])
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Close closes the client
func (r *RedisSessionRepository) Close() error {
	err := r.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func parseRedisTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}
