package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mango-db/mango/internal/core"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Redis is a DocumentCache backed by a Redis instance. Documents are
// stored as canonical extended JSON so identifier and timestamp types
// survive the round trip.
type Redis struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedis connects to the configured endpoint and verifies it with a
// ping.
func NewRedis(cfg Config, logger *zap.SugaredLogger) (*Redis, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("redis cache: at least one endpoint is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Endpoints[0],
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeoutOrDefault(cfg.DialTimeout))
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: connect: %w", err)
	}

	logger.Infow("document cache connected", "backend", TypeRedis, "addr", cfg.Endpoints[0])
	return &Redis{client: client, logger: logger}, nil
}

func dialTimeoutOrDefault(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return 5 * time.Second
}

func (r *Redis) Get(ctx context.Context, key string) (core.Document, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache: get %s: %w", key, err)
	}

	var doc core.Document
	if err := bson.UnmarshalExtJSON(raw, true, &doc); err != nil {
		// A corrupt entry is treated as a miss; the read path refreshes it.
		r.logger.Warnw("dropping undecodable cache entry", "key", key, "error", err)
		_ = r.client.Del(ctx, key).Err()
		return nil, core.ErrCacheMiss
	}
	return doc, nil
}

func (r *Redis) Set(ctx context.Context, key string, doc core.Document, ttl time.Duration) error {
	raw, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return fmt.Errorf("redis cache: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis cache: delete %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
