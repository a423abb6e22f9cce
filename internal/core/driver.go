package core

import (
	"context"
	"time"
)

// SortField is a single sort key.
type SortField struct {
	Field string
	// Desc sorts descending when true.
	Desc bool
}

// FindOptions controls read operations. The zero value means no sort, no
// limit, full documents.
type FindOptions struct {
	Sort       []SortField
	Limit      int64
	Skip       int64
	Projection Document
}

// IndexKey is one component of an index key specification. Order matters.
type IndexKey struct {
	Field string
	// Direction is 1 for ascending, -1 for descending.
	Direction int
}

// IndexModel declares an index to create.
type IndexModel struct {
	// Name is optional; when empty the driver derives one from the keys.
	Name   string
	Keys   []IndexKey
	Unique bool
	Sparse bool
	// ExpireAfter enables TTL expiry when > 0.
	ExpireAfter time.Duration
}

// IndexSpec describes an index as reported by the store.
type IndexSpec struct {
	Name   string
	Keys   []IndexKey
	Unique bool
}

// Session is an opaque handle for multi-operation atomicity. Operations
// executed inside the fn passed to WithTransaction run in the transaction;
// the handle is threaded through their contexts by the driver.
type Session interface {
	// WithTransaction runs fn inside a transaction, committing on nil and
	// aborting on error. The context passed to fn carries the session.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// End releases the session. Safe to call on every exit path.
	End(ctx context.Context)
}

// Driver is the contract the core consumes from the external document
// store. Query filters, operator documents and aggregation pipelines pass
// through it unmodified; cancellation and retry follow the driver's own
// call contract.
type Driver interface {
	Ping(ctx context.Context) (time.Duration, error)
	Close(ctx context.Context) error

	InsertOne(ctx context.Context, collection string, doc Document) (*InsertOneResult, error)
	InsertMany(ctx context.Context, collection string, docs []Document) (*InsertManyResult, error)

	FindOne(ctx context.Context, collection string, filter Document, opts FindOptions) (Document, error)
	Find(ctx context.Context, collection string, filter Document, opts FindOptions) ([]Document, error)

	UpdateOne(ctx context.Context, collection string, filter, update Document, upsert bool) (*UpdateResult, error)
	UpdateMany(ctx context.Context, collection string, filter, update Document, upsert bool) (*UpdateResult, error)
	ReplaceOne(ctx context.Context, collection string, filter, doc Document, upsert bool) (*UpdateResult, error)

	DeleteOne(ctx context.Context, collection string, filter Document) (*DeleteResult, error)
	DeleteMany(ctx context.Context, collection string, filter Document) (*DeleteResult, error)

	CountDocuments(ctx context.Context, collection string, filter Document) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline []Document) ([]Document, error)

	CreateIndexes(ctx context.Context, collection string, indexes []IndexModel) ([]string, error)
	DropIndex(ctx context.Context, collection string, name string) error
	ListIndexes(ctx context.Context, collection string) ([]IndexSpec, error)

	StartSession(ctx context.Context) (Session, error)
}
