package mango

import (
	"time"

	"github.com/mango-db/mango/internal/core"
)

// FindOption shapes a read operation.
type FindOption func(*core.FindOptions)

// SortBy appends a sort key. Call repeatedly for compound sorts.
func SortBy(field string, desc bool) FindOption {
	return func(o *core.FindOptions) {
		o.Sort = append(o.Sort, core.SortField{Field: field, Desc: desc})
	}
}

// Limit caps the number of returned documents.
func Limit(n int64) FindOption {
	return func(o *core.FindOptions) { o.Limit = n }
}

// Skip skips the first n matching documents.
func Skip(n int64) FindOption {
	return func(o *core.FindOptions) { o.Skip = n }
}

// Project restricts the returned fields.
func Project(projection Document) FindOption {
	return func(o *core.FindOptions) { o.Projection = projection }
}

func buildFindOptions(opts []FindOption) core.FindOptions {
	var out core.FindOptions
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// UpdateOption shapes an update or replace operation.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	upsert bool
}

// Upsert inserts a new document when the filter matches nothing. On the
// insert, schema defaults are applied to every field the update does not
// modify and the filter does not pin by equality.
func Upsert() UpdateOption {
	return func(o *updateOptions) { o.upsert = true }
}

func buildUpdateOptions(opts []UpdateOption) updateOptions {
	var out updateOptions
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// CollectionOption configures a collection binding.
type CollectionOption func(*collectionConfig)

type collectionConfig struct {
	cacheTTL     time.Duration
	cacheDisable bool
	namespace    string
	indexes      []core.IndexModel
}

// WithCacheTTL overrides the client-wide TTL for this collection's cached
// documents.
func WithCacheTTL(ttl time.Duration) CollectionOption {
	return func(c *collectionConfig) { c.cacheTTL = ttl }
}

// WithoutCache disables the read-through cache for this collection even
// when the client has one.
func WithoutCache() CollectionOption {
	return func(c *collectionConfig) { c.cacheDisable = true }
}

// WithCacheNamespace prefixes this collection's cache keys, isolating
// tenants that share a cache.
func WithCacheNamespace(namespace string) CollectionOption {
	return func(c *collectionConfig) { c.namespace = namespace }
}

// WithIndexes declares the collection's indexes for SyncIndexes.
func WithIndexes(indexes ...IndexModel) CollectionOption {
	return func(c *collectionConfig) { c.indexes = append(c.indexes, indexes...) }
}
