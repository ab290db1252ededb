package settings

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "ogbrand"
	DefaultMongoCollection = "settings"
)

// mongoDoc is one stored value.
type mongoDoc struct {
	Scope string `bson:"scope"`
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// MongoStore keeps one document per (scope, key) in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to uri, verifies the connection and ensures a
// unique index on (scope, key).
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s := NewMongoStoreFromClient(client, database, collection)
	s.owned = true
	if err := s.ensureIndex(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close does not
// disconnect a client passed in this way.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}
}

func (s *MongoStore) ensureIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "scope", Value: 1}, {Key: "key", Value: 1}},
		Options: mongoopts.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, scope Scope, key string) (string, bool, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"scope": scope.String(), "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap(err, "get %s %s", scope, key)
	}
	return doc.Value, true, nil
}

func (s *MongoStore) Set(ctx context.Context, scope Scope, key, value string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"scope": scope.String(), "key": key},
		bson.M{"$set": bson.M{"value": value}},
		mongoopts.Update().SetUpsert(true),
	)
	return s.wrap(err, "set %s %s", scope, key)
}

func (s *MongoStore) Delete(ctx context.Context, scope Scope, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"scope": scope.String(), "key": key})
	return s.wrap(err, "delete %s %s", scope, key)
}

func (s *MongoStore) List(ctx context.Context, scope Scope) (map[string]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{"scope": scope.String()})
	if err != nil {
		return nil, s.wrap(err, "list %s", scope)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.wrap(err, "list %s", scope)
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Key] = d.Value
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) wrap(err error, format string, args ...any) error {
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return ErrClosed
	}
	return storeErr(err, format, args...)
}

var _ Store = (*MongoStore)(nil)
