package memoryinfra

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/config"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// Open builds the repository selected by cfg.Backend
func Open(ctx context.Context, cfg config.StoreConfig) (memoryx.SessionRepository, error) {
	logx.WithField("backend", cfg.Backend).Debug("Opening session store")

	var (
		repo memoryx.SessionRepository
		err  error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		repo = NewMemorySessionRepository()
	case config.BackendSQLite:
		repo, err = asRepository(OpenSQLite(ctx, cfg.SQLitePath))
	case config.BackendPostgres:
		repo, err = asRepository(OpenPostgres(ctx, cfg.Postgres.DSN()))
	case config.BackendRedis:
		repo, err = asRepository(OpenRedis(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.KeyPrefix))
	case config.BackendS3:
		repo, err = asRepository(OpenS3(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region, cfg.S3.Endpoint))
	default:
		err = fmt.Errorf("unsupported session store backend %q", cfg.Backend)
	}

	if err != nil {
		logx.WithField("backend", cfg.Backend).WithError(err).Error("Failed to open session store")
		return nil, err
	}
	return repo, nil
}

// asRepository keeps a failed open from leaking a typed nil interface
func asRepository(repo memoryx.SessionRepository, err error) (memoryx.SessionRepository, error) {
	if err != nil {
		return nil, err
	}
	return repo, nil
}
