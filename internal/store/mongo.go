package store

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

// MongoStore keeps each document as one record of a MongoDB collection,
// keyed by document name.
type MongoStore struct {
	snapshots
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

var _ Backend = (*MongoStore)(nil)

const defaultMongoTimeout = 5 * time.Second

type mongoDocument struct {
	Name      string    `bson:"_id"`
	Body      string    `bson:"body"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongoStore connects to uri and inserts empty documents that are missing.
func NewMongoStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoStore, error) {
	if timeout <= 0 {
		timeout = defaultMongoTimeout
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &MongoStore{
		client:  client,
		coll:    client.Database(database).Collection(collection),
		timeout: timeout,
	}
	s.snapshots = snapshots{io: s}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	for _, name := range documentNames {
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": name},
			bson.M{"$setOnInsert": bson.M{"body": string(emptyDocument(name)), "updatedAt": time.Now().UTC()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return s, nil
}

func (s *MongoStore) readDocument(ctx context.Context, name string) ([]byte, error) {
	var doc mongoDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("document %q does not exist", name)
		}
		return nil, err
	}
	return []byte(doc.Body), nil
}

func (s *MongoStore) writeDocument(ctx context.Context, name string, body []byte) error {
	doc := mongoDocument{Name: name, Body: string(body), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
