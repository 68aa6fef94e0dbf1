// internal/storage/mongo.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	databaseName   = "bot"
	collectionName = "raydium_lp_transactionsV2"
)

// MongoStore persists pool records in MongoDB.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore connects to MongoDB and pings it before returning.
func NewMongoStore(ctx context.Context, uri string, logger *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(databaseName).Collection(collectionName),
		logger: logger.Named("storage"),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GetPool fetches the pool record by its hex object id.
func (s *MongoStore) GetPool(ctx context.Context, id string) (*PoolRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid pool record id %q: %w", id, err)
	}

	var record PoolRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool record %s: %w", id, err)
	}
	record.ID = id
	return &record, nil
}

// SavePool inserts the record and fills in its generated id.
func (s *MongoStore) SavePool(ctx context.Context, record *PoolRecord) (string, error) {
	res, err := s.coll.InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to save pool record: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	record.ID = oid.Hex()

	s.logger.Debug("Saved pool record",
		zap.String("id", record.ID),
		zap.String("token", record.TokenAddress))
	return record.ID, nil
}

var _ Store = (*MongoStore)(nil)
