package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStoreWithClient(client, database), nil
}

// NewMongoStoreWithClient wraps an already connected client. Close
// disconnects it.
func NewMongoStoreWithClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{col: s.db.Collection(name)}
}

func (s *MongoStore) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create unique index on %s.%s: %w", collection, field, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	col *mongo.Collection
}

// toBSON translates a Filter. Contains becomes a case-insensitive regex over
// the quoted text, so user input is never interpreted as a pattern.
func toBSON(f Filter) bson.M {
	out := bson.M{}
	for field, value := range f.Equals {
		out[field] = value
	}
	for field, sub := range f.Contains {
		out[field] = primitive.Regex{Pattern: regexp.QuoteMeta(sub), Options: "i"}
	}
	return out
}

func (c *mongoCollection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	findOpts := options.Find()
	if opts.SortBy != "" {
		findOpts.SetSort(bson.D{{Key: opts.SortBy, Value: 1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := c.col.Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Document{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, Document(doc))
	}
	return out, cur.Err()
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc Document) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := c.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (c *mongoCollection) InsertMany(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = doc
	}
	_, err := c.col.InsertMany(ctx, batch)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (c *mongoCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if len(set) == 0 {
		return 0, nil
	}
	result, err := c.col.UpdateMany(ctx, toBSON(filter), bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	result, err := c.col.DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (c *mongoCollection) Distinct(ctx context.Context, field string) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	return c.col.Distinct(ctx, field, bson.M{})
}
