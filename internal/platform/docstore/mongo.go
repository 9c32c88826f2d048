package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Index describes an ascending/descending compound index on a collection.
type Index struct {
	Collection string
	Keys       []Order
}

type MongoStore struct {
	client    *mongo.Client
	db        *mongo.Database
	opTimeout time.Duration
}

// NewMongoStore connects and pings the primary before returning.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client:    client,
		db:        client.Database(cfg.Database),
		opTimeout: 5 * time.Second,
	}, nil
}

func (s *MongoStore) CreateID() string { return newID() }

// EnsureIndexes creates the given indexes; existing ones are left untouched by the server.
func (s *MongoStore) EnsureIndexes(ctx context.Context, indexes []Index) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	byCollection := make(map[string][]mongo.IndexModel)
	for _, idx := range indexes {
		keys := bson.D{}
		for _, k := range idx.Keys {
			keys = append(keys, bson.E{Key: k.Field, Value: int(k.Direction)})
		}
		byCollection[idx.Collection] = append(byCollection[idx.Collection], mongo.IndexModel{Keys: keys})
	}
	for collection, models := range byCollection {
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	fields, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	filter := bson.M{"_id": id}

	if applySetOptions(opts).merge {
		delete(fields, "_id")
		_, err = s.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": fields}, options.Update().SetUpsert(true))
	} else {
		fields["_id"] = id
		_, err = s.db.Collection(collection).ReplaceOne(ctx, filter, fields, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	patch := bson.M{}
	for key, value := range fields {
		if key != "_id" {
			patch[key] = value
		}
	}
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patch})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, q Query, out any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, mongoFilter(q), mongoFindOptions(q))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var mongoOperators = map[Op]string{
	OpEqual:        "$eq",
	OpIn:           "$in",
	OpLess:         "$lt",
	OpLessEqual:    "$lte",
	OpGreater:      "$gt",
	OpGreaterEqual: "$gte",
}

// mongoFilter groups predicates by field so range pairs end up in one operator document.
func mongoFilter(q Query) bson.D {
	filter := bson.D{}
	index := make(map[string]int)
	for _, p := range q.Where {
		op := bson.E{Key: mongoOperators[p.Op], Value: p.Value}
		if i, ok := index[p.Field]; ok {
			ops := filter[i].Value.(bson.D)
			filter[i].Value = append(ops, op)
			continue
		}
		index[p.Field] = len(filter)
		filter = append(filter, bson.E{Key: p.Field, Value: bson.D{op}})
	}
	return filter
}

func mongoFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			sort = append(sort, bson.E{Key: o.Field, Value: int(o.Direction)})
		}
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}
