package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parametriq/designflow/session"
)

// RedisSessionStore is a Redis-based implementation of SessionStore.
// Suitable for distributed deployments. Results are stored as JSON values
// with a sorted-set index for recency ordering.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionStore 创建 Redis 会话存储
func NewRedisSessionStore(config RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "designflow:"
	}

	return &RedisSessionStore{
		client:    client,
		keyPrefix: keyPrefix + "session:",
	}, nil
}

// resultKey returns the Redis key for a session result
func (s *RedisSessionStore) resultKey(sessionID string) string {
	return s.keyPrefix + "result:" + sessionID
}

// indexKey returns the Redis key of the recency index
func (s *RedisSessionStore) indexKey() string {
	return s.keyPrefix + "index"
}

// SaveResult 保存会话结果
func (s *RedisSessionStore) SaveResult(ctx context.Context, result *session.SessionResult) error {
	if result == nil || result.SessionID == "" {
		return ErrInvalidInput
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.resultKey(result.SessionID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: result.SessionID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// GetResult 按会话 ID 取回结果
func (s *RedisSessionStore) GetResult(ctx context.Context, sessionID string) (*session.SessionResult, error) {
	data, err := s.client.Get(ctx, s.resultKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var result session.SessionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session result: %w", err)
	}

	return &result, nil
}

// ListResults 返回最多 limit 条结果，最新优先
func (s *RedisSessionStore) ListResults(ctx context.Context, limit int) ([]*session.SessionResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*session.SessionResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.GetResult(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// DeleteResult 删除结果
func (s *RedisSessionStore) DeleteResult(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.resultKey(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Ping 检查存储是否健康
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭存储
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
