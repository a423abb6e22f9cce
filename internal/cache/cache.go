// Package cache provides the read-through document cache backends. The
// cache accelerates identifier lookups only; it is never consulted for
// filtered queries and every write path invalidates the affected key.
package cache

import (
	"fmt"
	"time"

	"github.com/mango-db/mango/internal/core"
	"go.uber.org/zap"
)

// Backend identifiers accepted by New.
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config selects and configures a cache backend.
type Config struct {
	Type string

	// TTL applies to every cached document.
	TTL time.Duration

	// Redis backend settings.
	Endpoints    []string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates the configured cache backend. Type "none" (or empty) returns
// (nil, nil): the caller treats a nil cache as disabled.
func New(cfg Config, logger *zap.SugaredLogger) (core.DocumentCache, error) {
	switch cfg.Type {
	case "", TypeNone:
		return nil, nil
	case TypeMemory:
		return NewMemory(), nil
	case TypeRedis:
		return NewRedis(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// Key builds the cache key for a document identifier.
func Key(collection string, id interface{}) string {
	return fmt.Sprintf("%s:%v", collection, id)
}
