package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/parametriq/designflow/session"
)

// mongoDocument is the stored shape: the indexed fields plus the result
// serialized as JSON so the interchange format matches the other backends.
type mongoDocument struct {
	SessionID      string    `bson:"session_id"`
	Status         string    `bson:"status"`
	IterationCount int       `bson:"iteration_count"`
	Payload        []byte    `bson:"payload"`
	CreatedAt      time.Time `bson:"created_at"`
}

// MongoSessionStore is a MongoDB-based implementation of SessionStore.
type MongoSessionStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSessionStore 创建 Mongo 会话存储
func NewMongoSessionStore(config MongoConfig) (*MongoSessionStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoSessionStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}, nil
}

// SaveResult 保存会话结果（同一 session_id 覆盖）
func (s *MongoSessionStore) SaveResult(ctx context.Context, result *session.SessionResult) error {
	if result == nil || result.SessionID == "" {
		return ErrInvalidInput
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	doc := mongoDocument{
		SessionID:      result.SessionID,
		Status:         string(result.Status),
		IterationCount: result.IterationCount,
		Payload:        payload,
		CreatedAt:      time.Now(),
	}

	_, err = s.collection.ReplaceOne(ctx,
		bson.M{"session_id": result.SessionID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// GetResult 按会话 ID 取回结果
func (s *MongoSessionStore) GetResult(ctx context.Context, sessionID string) (*session.SessionResult, error) {
	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var result session.SessionResult
	if err := json.Unmarshal(doc.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session result: %w", err)
	}

	return &result, nil
}

// ListResults 返回最多 limit 条结果，最新优先
func (s *MongoSessionStore) ListResults(ctx context.Context, limit int) ([]*session.SessionResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*session.SessionResult
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		var result session.SessionResult
		if err := json.Unmarshal(doc.Payload, &result); err != nil {
			continue
		}
		results = append(results, &result)
	}

	return results, cursor.Err()
}

// DeleteResult 删除结果
func (s *MongoSessionStore) DeleteResult(ctx context.Context, sessionID string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	return err
}

// Ping 检查存储是否健康
func (s *MongoSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 关闭存储
func (s *MongoSessionStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
