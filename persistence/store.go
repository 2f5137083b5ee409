// Package persistence provides persistent storage for terminal session
// results in the designflow engine.
//
// The engine core mandates no persisted state; deployments that want an
// audit trail of consensus outcomes plug one of these backends in behind
// the SessionStore interface.
//
// Supported backends:
// - Memory: for development and testing (default)
// - Redis: for distributed deployments
// - Database: gorm-backed SQL storage (sqlite, postgres, mysql)
// - Mongo: document storage keyed by session id
package persistence

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/session"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypeDatabase StoreType = "database"
	StoreTypeMongo    StoreType = "mongo"
)

// RedisConfig Redis 后端配置
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
	PoolSize  int    `json:"pool_size" yaml:"pool_size"`
}

// DatabaseConfig SQL 后端配置
type DatabaseConfig struct {
	// Driver is one of sqlite, postgres, mysql.
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// MongoConfig Mongo 后端配置
type MongoConfig struct {
	URI        string `json:"uri" yaml:"uri"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`
}

// Config selects and configures a session store backend.
type Config struct {
	Type     StoreType      `json:"type" yaml:"type"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Mongo    MongoConfig    `json:"mongo" yaml:"mongo"`
}

// DefaultConfig 返回默认存储配置
func DefaultConfig() Config {
	return Config{
		Type: StoreTypeMemory,
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "designflow:",
			PoolSize:  10,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "designflow.db",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "designflow",
			Collection: "session_results",
		},
	}
}

// SessionStore persists terminal session results.
type SessionStore interface {
	// SaveResult persists a session result, replacing any previous
	// result stored under the same session id.
	SaveResult(ctx context.Context, result *session.SessionResult) error

	// GetResult retrieves a result by session id.
	GetResult(ctx context.Context, sessionID string) (*session.SessionResult, error)

	// ListResults returns up to limit results, most recent first.
	// limit <= 0 means no limit.
	ListResults(ctx context.Context, limit int) ([]*session.SessionResult, error)

	// DeleteResult removes a result. No-op if absent.
	DeleteResult(ctx context.Context, sessionID string) error

	// Ping checks if the store is healthy.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// NewSessionStore creates a session store for the configured backend.
func NewSessionStore(config Config, logger *zap.Logger) (SessionStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemorySessionStore(), nil
	case StoreTypeRedis:
		return NewRedisSessionStore(config.Redis)
	case StoreTypeDatabase:
		return NewDatabaseSessionStore(config.Database, logger)
	case StoreTypeMongo:
		return NewMongoSessionStore(config.Mongo)
	default:
		return nil, errors.New("unknown session store type: " + string(config.Type))
	}
}
