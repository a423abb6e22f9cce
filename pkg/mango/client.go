// Package mango is a schema-driven object-document mapper over MongoDB.
// Documents are validated against a declared schema before every write,
// and update semantics (full replace, partial merge, upsert with
// insert-only defaults) are derived from that schema.
//
// Typical usage:
//
//	client, _ := mango.Connect(ctx, mango.DefaultConfig())
//	defer client.Close(ctx)
//
//	products := client.Collection("products", mango.NewSchema(
//		mango.Field("name", mango.String, mango.Required()),
//		mango.Field("category", mango.String, mango.Default("general")),
//		mango.Field("tags", mango.Array, mango.Default([]interface{}{})),
//	))
//
//	_, err := products.InsertOne(ctx, mango.Document{"name": "widget"})
package mango

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mango-db/mango/internal/cache"
	"github.com/mango-db/mango/internal/core"
	"github.com/mango-db/mango/internal/driver"
	"github.com/mango-db/mango/internal/events"
	"go.uber.org/zap"
)

// Client owns the store connection and the resources shared by every
// collection: the optional document cache and change-event publisher.
type Client struct {
	mu          sync.RWMutex
	config      *Config
	driver      core.Driver
	cache       core.DocumentCache
	events      core.EventPublisher
	logger      *zap.SugaredLogger
	collections map[string]*Collection
	closed      bool
}

// Connect establishes the store connection and initializes the configured
// cache and event sink. A store that cannot be reached yields a
// ConnectionError; no automatic retry is attempted.
func Connect(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	drv, err := driver.Connect(ctx, config.URI, config.Database, config.ConnectTimeout, logger)
	if err != nil {
		return nil, &ConnectionError{URI: config.URI, Err: err}
	}

	docCache, err := cache.New(cache.Config{
		Type:         config.Cache.Type,
		TTL:          config.Cache.TTL,
		Endpoints:    config.Cache.Endpoints,
		Password:     config.Cache.Password,
		DB:           config.Cache.DB,
		PoolSize:     config.Cache.PoolSize,
		DialTimeout:  config.Cache.DialTimeout,
		ReadTimeout:  config.Cache.ReadTimeout,
		WriteTimeout: config.Cache.WriteTimeout,
	}, logger)
	if err != nil {
		_ = drv.Close(ctx)
		return nil, err
	}

	publisher, err := events.New(events.Config{
		Type:         config.Events.Type,
		BufferSize:   config.Events.BufferSize,
		Brokers:      config.Events.Brokers,
		Topic:        config.Events.Topic,
		BatchSize:    config.Events.BatchSize,
		BatchTimeout: config.Events.BatchTimeout,
		WriteTimeout: config.Events.WriteTimeout,
		RequiredAcks: config.Events.RequiredAcks,
	}, logger)
	if err != nil {
		if docCache != nil {
			_ = docCache.Close()
		}
		_ = drv.Close(ctx)
		return nil, err
	}

	return &Client{
		config:      config,
		driver:      drv,
		cache:       docCache,
		events:      publisher,
		logger:      logger,
		collections: make(map[string]*Collection),
	}, nil
}

// Collection binds a named collection to a schema. Bindings are cached by
// name: binding the same name twice returns the first binding and ignores
// the later schema and options.
func (c *Client) Collection(name string, validator Validator, opts ...CollectionOption) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if coll, ok := c.collections[name]; ok {
		return coll
	}

	cfg := collectionConfig{cacheTTL: c.config.Cache.TTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	docCache := c.cache
	if cfg.cacheDisable {
		docCache = nil
	}

	coll := &Collection{
		name:      name,
		validator: validator,
		driver:    c.driver,
		cache:     docCache,
		events:    c.events,
		logger:    c.logger,
		cacheTTL:  cfg.cacheTTL,
		namespace: cfg.namespace,
		indexes:   cfg.indexes,
	}
	c.collections[name] = coll
	return coll
}

// Ping verifies the store is reachable and returns the round-trip latency.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	latency, err := c.driver.Ping(ctx)
	if err != nil {
		return 0, &ConnectionError{URI: c.config.URI, Err: err}
	}
	return latency, nil
}

// WithTransaction runs fn inside a store transaction. Operations performed
// through the context passed to fn join the transaction. The session is
// released on every exit path: commit, abort, and panic alike.
func (c *Client) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := c.driver.StartSession(ctx)
	if err != nil {
		return &OperationError{Op: "startSession", Collection: "", Err: err}
	}
	defer session.End(ctx)
	return session.WithTransaction(ctx, fn)
}

// Close releases the event publisher, the cache and the store connection.
// Safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if c.events != nil {
		if err := c.events.Close(); err != nil {
			c.logger.Warnw("closing event publisher", "error", err)
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Warnw("closing document cache", "error", err)
		}
	}
	return c.driver.Close(ctx)
}
