package memoryinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by the repository
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// sessionRecord is the object stored per session
type sessionRecord struct {
	Session  memoryx.Session          `json:"session"`
	Messages []memoryx.SessionMessage `json:"messages"`
}

// S3SessionRepository stores one JSON object per session. Appends are a
// read-modify-write under a per-session lock, so a single process must own
// a given prefix.
type S3SessionRepository struct {
	client S3API
	bucket string
	prefix string
	locks  memoryx.SessionLocks
}

// NewS3SessionRepository creates a repository over client
func NewS3SessionRepository(client S3API, bucket, prefix string) *S3SessionRepository {
	logx.WithFields(logx.Fields{
		"bucket": bucket,
		"prefix": prefix,
	}).Info("S3 session repository initialized")

	return &S3SessionRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// OpenS3 builds an S3 client from the default AWS credential chain.
// A non-empty endpoint selects path-style addressing for S3-compatible stores.
func OpenS3(ctx context.Context, bucket, prefix, region, endpoint string) (*S3SessionRepository, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, memoryx.ErrStorage("open", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SessionRepository(client, bucket, prefix), nil
}

func (r *S3SessionRepository) objectKey(id memoryx.SessionID) string {
	return r.prefix + string(id) + ".json"
}

// load returns nil, nil when the session object does not exist
func (r *S3SessionRepository) load(ctx context.Context, key string) (*sessionRecord, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// AddMessage rewrites the session object with the message appended
func (r *S3SessionRepository) AddMessage(ctx context.Context, message *memoryx.SessionMessage) error {
	if err := memoryx.ValidateMessage(message); err != nil {
		return err
	}

	unlock := r.locks.Lock(message.SessionID)
	defer unlock()

	key := r.objectKey(message.SessionID)
	record, err := r.load(ctx, key)
	if err != nil {
		logx.WithField("key", key).WithError(err).Error("Failed to load session object")
		return memoryx.ErrStorage("add_message", err)
	}

	now := time.Now().UTC()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	if record == nil {
		record = &sessionRecord{
			Session: memoryx.Session{ID: message.SessionID, CreatedAt: message.CreatedAt},
		}
	}

	message.ID = int64(len(record.Messages) + 1)
	record.Messages = append(record.Messages, *message)
	record.Session.UpdatedAt = message.CreatedAt
	record.Session.MessageCount = len(record.Messages)

	data, err := json.Marshal(record)
	if err != nil {
		return memoryx.ErrMessageSerializationFailed(err)
	}

	if _, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		logx.WithField("key", key).WithError(err).Error("Failed to write session object")
		return memoryx.ErrStorage("add_message", err)
	}

	return nil
}

// GetMessages returns the messages of the session object
func (r *S3SessionRepository) GetMessages(ctx context.Context, sessionID memoryx.SessionID) ([]memoryx.SessionMessage, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, err
	}

	record, err := r.load(ctx, r.objectKey(sessionID))
	if err != nil {
		return nil, memoryx.ErrStorage("get_messages", err)
	}
	if record == nil || record.Messages == nil {
		return []memoryx.SessionMessage{}, nil
	}
	return record.Messages, nil
}

// GetMessageCount returns the number of stored messages
func (r *S3SessionRepository) GetMessageCount(ctx context.Context, sessionID memoryx.SessionID) (int, error) {
	messages, err := r.GetMessages(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// ListSessions loads every session object under the prefix
func (r *S3SessionRepository) ListSessions(ctx context.Context, limit, offset int) ([]*memoryx.Session, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	var sessions []*memoryx.Session
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, memoryx.ErrStorage("list_sessions", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}

			record, err := r.load(ctx, key)
			if err != nil {
				return nil, memoryx.ErrStorage("list_sessions", err)
			}
			if record == nil {
				continue
			}
			session := record.Session
			sessions = append(sessions, &session)
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return paginate(sessions, limit, offset), nil
}

// Close is a no-op; the S3 client holds no connections that need closing
func (r *S3SessionRepository) Close() error {
	return nil
}
