package core

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by DocumentCache.Get when the key is absent.
var ErrCacheMiss = errors.New("document cache: miss")

// DocumentCache is a read-through cache for documents fetched by
// identifier. Implementations must be safe for concurrent use.
type DocumentCache interface {
	Get(ctx context.Context, key string) (Document, error)
	Set(ctx context.Context, key string, doc Document, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ChangeEvent describes a committed mutation, emitted after the store
// acknowledged the write.
type ChangeEvent struct {
	Collection string      `json:"collection"`
	Operation  string      `json:"operation"` // insert, update, replace, delete
	DocumentID interface{} `json:"document_id,omitempty"`
	Filter     Document    `json:"filter,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// EventPublisher delivers change events to an external sink. Publishing is
// best-effort from the writer's point of view: a publish failure never
// fails the write that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Close() error
}
