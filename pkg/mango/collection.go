package mango

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mango-db/mango/internal/cache"
	"github.com/mango-db/mango/internal/core"
	"github.com/mango-db/mango/internal/update"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Result types returned by write operations.
type (
	InsertOneResult  = core.InsertOneResult
	InsertManyResult = core.InsertManyResult
	UpdateResult     = core.UpdateResult
	DeleteResult     = core.DeleteResult
)

// Collection is a schema-bound view of a named collection. Every write
// funnels through schema validation and the update-semantics resolver
// before it reaches the store; reads pass filters through unmodified.
//
// The read-through cache serves the ByID helpers only. Writes invalidate
// the keys they can identify (an id-equality filter, an upserted id, an
// inserted id), so the cache suits id-keyed access patterns; filtered bulk
// updates do not invalidate what they touched.
type Collection struct {
	name      string
	validator core.Validator
	driver    core.Driver
	cache     core.DocumentCache
	events    core.EventPublisher
	logger    *zap.SugaredLogger
	cacheTTL  time.Duration
	namespace string
	indexes   []core.IndexModel
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// checkSync rejects schemas whose validation is asynchronous before any
// write work is done.
func (c *Collection) checkSync() error {
	if c.validator.Async() {
		return &AsyncValidationError{SchemaID: c.validator.ID()}
	}
	return nil
}

// InsertOne validates doc against the full schema, applying defaults to
// every absent field, and inserts it.
func (c *Collection) InsertOne(ctx context.Context, doc Document) (*InsertOneResult, error) {
	if err := c.checkSync(); err != nil {
		return nil, err
	}
	payload, issues := update.PrepareInsert(c.validator, doc)
	if len(issues) > 0 {
		return nil, &ValidationError{Op: "insert", Issues: issues}
	}

	res, err := c.driver.InsertOne(ctx, c.name, payload)
	if err != nil {
		return nil, &OperationError{Op: "insertOne", Collection: c.name, Err: err}
	}
	c.invalidate(ctx, res.InsertedID)
	c.emit(ctx, "insert", res.InsertedID, nil)
	return res, nil
}

// InsertMany validates every element independently; a single element's
// failure fails the whole batch before anything is sent. Batch atomicity
// beyond that is whatever the store's bulk insert provides.
func (c *Collection) InsertMany(ctx context.Context, docs []Document) (*InsertManyResult, error) {
	if err := c.checkSync(); err != nil {
		return nil, err
	}

	payloads := make([]core.Document, len(docs))
	var invalid error
	for i, doc := range docs {
		payload, issues := update.PrepareInsert(c.validator, doc)
		if len(issues) > 0 {
			invalid = multierr.Append(invalid, &ValidationError{
				Op:     "insert",
				Issues: issues.Prefix(fmt.Sprintf("%d", i)),
			})
			continue
		}
		payloads[i] = payload
	}
	if invalid != nil {
		return nil, invalid
	}

	res, err := c.driver.InsertMany(ctx, c.name, payloads)
	if err != nil {
		return nil, &OperationError{Op: "insertMany", Collection: c.name, Err: err}
	}
	for _, id := range res.InsertedIDs {
		c.invalidate(ctx, id)
		c.emit(ctx, "insert", id, nil)
	}
	return res, nil
}

// UpdateOne partially validates the update's value-carrying operators and
// applies it to the first matching document. With Upsert, schema defaults
// are injected insert-only for fields the update does not modify and the
// filter does not pin by equality.
func (c *Collection) UpdateOne(ctx context.Context, filter, changes Document, opts ...UpdateOption) (*UpdateResult, error) {
	return c.update(ctx, "updateOne", c.driver.UpdateOne, filter, changes, opts)
}

// UpdateMany is UpdateOne over every matching document.
func (c *Collection) UpdateMany(ctx context.Context, filter, changes Document, opts ...UpdateOption) (*UpdateResult, error) {
	return c.update(ctx, "updateMany", c.driver.UpdateMany, filter, changes, opts)
}

type updateFunc func(ctx context.Context, collection string, filter, update core.Document, upsert bool) (*core.UpdateResult, error)

func (c *Collection) update(ctx context.Context, op string, run updateFunc, filter, changes Document, opts []UpdateOption) (*UpdateResult, error) {
	if err := c.checkSync(); err != nil {
		return nil, err
	}
	options := buildUpdateOptions(opts)

	payload, issues := update.PrepareUpdate(c.validator, changes, filter, options.upsert)
	if len(issues) > 0 {
		return nil, &ValidationError{Op: "update", Issues: issues}
	}

	res, err := run(ctx, c.name, filter, payload, options.upsert)
	if err != nil {
		return nil, &OperationError{Op: op, Collection: c.name, Err: err}
	}
	if id, ok := filter[core.IDField]; ok {
		c.invalidate(ctx, id)
	}
	if res.UpsertedID != nil {
		c.invalidate(ctx, res.UpsertedID)
	}
	c.emit(ctx, "update", res.UpsertedID, filter)
	return res, nil
}

// ReplaceOne fully validates the replacement, back-filling absent defaulted
// fields and stripping the identifier, then replaces the first match.
// Upsert needs no extra handling: the validated payload is already the
// complete document an insert would store.
func (c *Collection) ReplaceOne(ctx context.Context, filter, doc Document, opts ...UpdateOption) (*UpdateResult, error) {
	if err := c.checkSync(); err != nil {
		return nil, err
	}
	options := buildUpdateOptions(opts)

	payload, issues := update.PrepareReplace(c.validator, doc)
	if len(issues) > 0 {
		return nil, &ValidationError{Op: "replace", Issues: issues}
	}

	res, err := c.driver.ReplaceOne(ctx, c.name, filter, payload, options.upsert)
	if err != nil {
		return nil, &OperationError{Op: "replaceOne", Collection: c.name, Err: err}
	}
	if id, ok := filter[core.IDField]; ok {
		c.invalidate(ctx, id)
	}
	if res.UpsertedID != nil {
		c.invalidate(ctx, res.UpsertedID)
	}
	c.emit(ctx, "replace", res.UpsertedID, filter)
	return res, nil
}

// FindOne returns the first matching document, or (nil, nil) when nothing
// matches.
func (c *Collection) FindOne(ctx context.Context, filter Document, opts ...FindOption) (Document, error) {
	doc, err := c.driver.FindOne(ctx, c.name, filter, buildFindOptions(opts))
	if err != nil {
		return nil, &OperationError{Op: "findOne", Collection: c.name, Err: err}
	}
	return doc, nil
}

// Find returns every matching document.
func (c *Collection) Find(ctx context.Context, filter Document, opts ...FindOption) ([]Document, error) {
	docs, err := c.driver.Find(ctx, c.name, filter, buildFindOptions(opts))
	if err != nil {
		return nil, &OperationError{Op: "find", Collection: c.name, Err: err}
	}
	return docs, nil
}

// DeleteOne removes the first matching document.
func (c *Collection) DeleteOne(ctx context.Context, filter Document) (*DeleteResult, error) {
	res, err := c.driver.DeleteOne(ctx, c.name, filter)
	if err != nil {
		return nil, &OperationError{Op: "deleteOne", Collection: c.name, Err: err}
	}
	if id, ok := filter[core.IDField]; ok {
		c.invalidate(ctx, id)
	}
	c.emit(ctx, "delete", nil, filter)
	return res, nil
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, filter Document) (*DeleteResult, error) {
	res, err := c.driver.DeleteMany(ctx, c.name, filter)
	if err != nil {
		return nil, &OperationError{Op: "deleteMany", Collection: c.name, Err: err}
	}
	if id, ok := filter[core.IDField]; ok {
		c.invalidate(ctx, id)
	}
	c.emit(ctx, "delete", nil, filter)
	return res, nil
}

// CountDocuments counts the documents matching filter.
func (c *Collection) CountDocuments(ctx context.Context, filter Document) (int64, error) {
	n, err := c.driver.CountDocuments(ctx, c.name, filter)
	if err != nil {
		return 0, &OperationError{Op: "countDocuments", Collection: c.name, Err: err}
	}
	return n, nil
}

// Aggregate runs an aggregation pipeline, passed through unmodified.
func (c *Collection) Aggregate(ctx context.Context, pipeline []Document) ([]Document, error) {
	docs, err := c.driver.Aggregate(ctx, c.name, pipeline)
	if err != nil {
		return nil, &OperationError{Op: "aggregate", Collection: c.name, Err: err}
	}
	return docs, nil
}

// FindByID fetches a document by identifier, consulting the read-through
// cache when one is configured. Returns NotFoundError when the id does not
// exist.
func (c *Collection) FindByID(ctx context.Context, id interface{}) (Document, error) {
	if c.cache != nil {
		doc, err := c.cache.Get(ctx, c.cacheKey(id))
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, core.ErrCacheMiss) {
			c.logger.Warnw("cache read failed", "collection", c.name, "error", err)
		}
	}

	filter := Document{core.IDField: id}
	doc, err := c.driver.FindOne(ctx, c.name, filter, core.FindOptions{})
	if err != nil {
		return nil, &OperationError{Op: "findOne", Collection: c.name, Err: err}
	}
	if doc == nil {
		return nil, &NotFoundError{Collection: c.name, Filter: filter}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, c.cacheKey(id), doc, c.cacheTTL); err != nil {
			c.logger.Warnw("cache write failed", "collection", c.name, "error", err)
		}
	}
	return doc, nil
}

// UpdateByID applies a partial update to the document with the given
// identifier. Returns NotFoundError when the id does not exist.
func (c *Collection) UpdateByID(ctx context.Context, id interface{}, changes Document) (*UpdateResult, error) {
	filter := Document{core.IDField: id}
	res, err := c.UpdateOne(ctx, filter, changes)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, &NotFoundError{Collection: c.name, Filter: filter}
	}
	return res, nil
}

// DeleteByID removes the document with the given identifier. Returns
// NotFoundError when the id does not exist.
func (c *Collection) DeleteByID(ctx context.Context, id interface{}) error {
	filter := Document{core.IDField: id}
	res, err := c.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return &NotFoundError{Collection: c.name, Filter: filter}
	}
	return nil
}

// SyncIndexes reconciles the collection's declared indexes with the store:
// missing indexes are created, and any whose key specification drifted is
// dropped and recreated. Indexes the declaration does not mention are left
// alone.
func (c *Collection) SyncIndexes(ctx context.Context) error {
	existing, err := c.driver.ListIndexes(ctx, c.name)
	if err != nil {
		return &OperationError{Op: "listIndexes", Collection: c.name, Err: err}
	}

	create, drop := planIndexSync(c.indexes, existing)
	for _, name := range drop {
		if err := c.driver.DropIndex(ctx, c.name, name); err != nil {
			return &OperationError{Op: "dropIndex", Collection: c.name, Err: err}
		}
	}
	if len(create) > 0 {
		if _, err := c.driver.CreateIndexes(ctx, c.name, create); err != nil {
			return &OperationError{Op: "createIndexes", Collection: c.name, Err: err}
		}
	}
	c.logger.Infow("indexes synchronized",
		"collection", c.name, "created", len(create), "recreated", len(drop))
	return nil
}

func (c *Collection) cacheKey(id interface{}) string {
	name := c.name
	if c.namespace != "" {
		name = c.namespace + ":" + name
	}
	return cache.Key(name, id)
}

func (c *Collection) invalidate(ctx context.Context, id interface{}) {
	if c.cache == nil || id == nil {
		return
	}
	if err := c.cache.Delete(ctx, c.cacheKey(id)); err != nil {
		c.logger.Warnw("cache invalidation failed", "collection", c.name, "error", err)
	}
}

// emit publishes a change event. Best-effort: a failing sink is logged,
// never surfaced to the writer.
func (c *Collection) emit(ctx context.Context, op string, id interface{}, filter Document) {
	if c.events == nil {
		return
	}
	event := core.ChangeEvent{
		Collection: c.name,
		Operation:  op,
		DocumentID: id,
		Filter:     filter,
		Timestamp:  time.Now().UTC(),
	}
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warnw("change event publish failed", "collection", c.name, "op", op, "error", err)
	}
}
