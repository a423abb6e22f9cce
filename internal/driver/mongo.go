// Package driver implements the store driver contract over the MongoDB
// Go driver. Filters, operator documents and pipelines pass through to the
// wire unmodified; retry and pooling are the underlying driver's concern.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/mango-db/mango/internal/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Mongo is the MongoDB implementation of core.Driver.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.SugaredLogger
}

var _ core.Driver = (*Mongo)(nil)

// Connect establishes a client, verifies it with a ping and binds the
// target database.
func Connect(ctx context.Context, uri, database string, timeout time.Duration, logger *zap.SugaredLogger) (*Mongo, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Infow("connected to store", "database", database)
	return &Mongo{client: client, db: client.Database(database), logger: logger}, nil
}

func (m *Mongo) coll(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Ping measures a round trip to the primary.
func (m *Mongo) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	m.logger.Infow("disconnecting from store", "database", m.db.Name())
	return m.client.Disconnect(ctx)
}

func (m *Mongo) InsertOne(ctx context.Context, collection string, doc core.Document) (*core.InsertOneResult, error) {
	res, err := m.coll(collection).InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &core.InsertOneResult{InsertedID: res.InsertedID}, nil
}

func (m *Mongo) InsertMany(ctx context.Context, collection string, docs []core.Document) (*core.InsertManyResult, error) {
	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}
	res, err := m.coll(collection).InsertMany(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &core.InsertManyResult{InsertedIDs: res.InsertedIDs}, nil
}

// FindOne returns (nil, nil) when no document matches.
func (m *Mongo) FindOne(ctx context.Context, collection string, filter core.Document, opts core.FindOptions) (core.Document, error) {
	findOpts := options.FindOne()
	if sort := toSortDoc(opts.Sort); sort != nil {
		findOpts.SetSort(sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	var doc core.Document
	err := m.coll(collection).FindOne(ctx, orEmpty(filter), findOpts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *Mongo) Find(ctx context.Context, collection string, filter core.Document, opts core.FindOptions) ([]core.Document, error) {
	findOpts := options.Find()
	if sort := toSortDoc(opts.Sort); sort != nil {
		findOpts.SetSort(sort)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := m.coll(collection).Find(ctx, orEmpty(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []core.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) UpdateOne(ctx context.Context, collection string, filter, update core.Document, upsert bool) (*core.UpdateResult, error) {
	res, err := m.coll(collection).UpdateOne(ctx, orEmpty(filter), update, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return toUpdateResult(res), nil
}

func (m *Mongo) UpdateMany(ctx context.Context, collection string, filter, update core.Document, upsert bool) (*core.UpdateResult, error) {
	res, err := m.coll(collection).UpdateMany(ctx, orEmpty(filter), update, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return toUpdateResult(res), nil
}

func (m *Mongo) ReplaceOne(ctx context.Context, collection string, filter, doc core.Document, upsert bool) (*core.UpdateResult, error) {
	res, err := m.coll(collection).ReplaceOne(ctx, orEmpty(filter), doc, options.Replace().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return toUpdateResult(res), nil
}

func (m *Mongo) DeleteOne(ctx context.Context, collection string, filter core.Document) (*core.DeleteResult, error) {
	res, err := m.coll(collection).DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return nil, err
	}
	return &core.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (m *Mongo) DeleteMany(ctx context.Context, collection string, filter core.Document) (*core.DeleteResult, error) {
	res, err := m.coll(collection).DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return nil, err
	}
	return &core.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (m *Mongo) CountDocuments(ctx context.Context, collection string, filter core.Document) (int64, error) {
	return m.coll(collection).CountDocuments(ctx, orEmpty(filter))
}

func (m *Mongo) Aggregate(ctx context.Context, collection string, pipeline []core.Document) ([]core.Document, error) {
	stages := make(mongo.Pipeline, 0, len(pipeline))
	for _, stage := range pipeline {
		d := make(bson.D, 0, len(stage))
		for key, value := range stage {
			d = append(d, bson.E{Key: key, Value: value})
		}
		stages = append(stages, d)
	}

	cursor, err := m.coll(collection).Aggregate(ctx, stages)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []core.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) CreateIndexes(ctx context.Context, collection string, indexes []core.IndexModel) ([]string, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		keys := make(bson.D, 0, len(idx.Keys))
		for _, key := range idx.Keys {
			keys = append(keys, bson.E{Key: key.Field, Value: key.Direction})
		}
		idxOpts := options.Index()
		if idx.Name != "" {
			idxOpts.SetName(idx.Name)
		}
		if idx.Unique {
			idxOpts.SetUnique(true)
		}
		if idx.Sparse {
			idxOpts.SetSparse(true)
		}
		if idx.ExpireAfter > 0 {
			idxOpts.SetExpireAfterSeconds(int32(idx.ExpireAfter / time.Second))
		}
		models = append(models, mongo.IndexModel{Keys: keys, Options: idxOpts})
	}

	names, err := m.coll(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		return nil, err
	}
	m.logger.Infow("created indexes", "collection", collection, "names", names)
	return names, nil
}

func (m *Mongo) DropIndex(ctx context.Context, collection, name string) error {
	_, err := m.coll(collection).Indexes().DropOne(ctx, name)
	if err != nil {
		return err
	}
	m.logger.Infow("dropped index", "collection", collection, "name", name)
	return nil
}

func (m *Mongo) ListIndexes(ctx context.Context, collection string) ([]core.IndexSpec, error) {
	cursor, err := m.coll(collection).Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var specs []core.IndexSpec
	for cursor.Next(ctx) {
		var raw struct {
			Name   string `bson:"name"`
			Key    bson.D `bson:"key"`
			Unique bool   `bson:"unique"`
		}
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		spec := core.IndexSpec{Name: raw.Name, Unique: raw.Unique}
		for _, e := range raw.Key {
			spec.Keys = append(spec.Keys, core.IndexKey{
				Field:     e.Key,
				Direction: toDirection(e.Value),
			})
		}
		specs = append(specs, spec)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}

// StartSession opens a store session for multi-operation atomicity.
func (m *Mongo) StartSession(ctx context.Context) (core.Session, error) {
	sess, err := m.client.StartSession()
	if err != nil {
		return nil, err
	}
	return &mongoSession{session: sess}, nil
}

type mongoSession struct {
	session mongo.Session
}

// WithTransaction runs fn in a transaction. The context handed to fn
// carries the session, so operations executed inside it join the
// transaction without further plumbing.
func (s *mongoSession) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := s.session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *mongoSession) End(ctx context.Context) {
	s.session.EndSession(ctx)
}

func toSortDoc(sort []core.SortField) bson.D {
	if len(sort) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(sort))
	for _, field := range sort {
		direction := 1
		if field.Desc {
			direction = -1
		}
		doc = append(doc, bson.E{Key: field.Field, Value: direction})
	}
	return doc
}

func toUpdateResult(res *mongo.UpdateResult) *core.UpdateResult {
	return &core.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func toDirection(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		// Special index kinds (text, hashed) report non-numeric directions;
		// the sync diff treats 0 as "unknown" and leaves them alone.
		return 0
	}
}

func orEmpty(filter core.Document) core.Document {
	if filter == nil {
		return core.Document{}
	}
	return filter
}
