package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/parametriq/designflow/session"
)

// sessionRecord is the gorm row model. The full result is kept as a JSON
// payload; indexed columns exist for querying without deserialization.
type sessionRecord struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"uniqueIndex;size:16"`
	Status         string    `gorm:"index;size:32"`
	IterationCount int       `gorm:"column:iteration_count"`
	Payload        []byte    `gorm:"type:blob"`
	CreatedAt      time.Time `gorm:"index"`
}

// TableName 指定表名
func (sessionRecord) TableName() string { return "session_results" }

// DatabaseSessionStore is a gorm-backed SQL implementation of
// SessionStore. Suitable for single-node deployments that need results to
// survive restarts.
type DatabaseSessionStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDatabaseSessionStore opens the configured SQL backend and migrates
// the session_results table.
func NewDatabaseSessionStore(config DatabaseConfig, logger *zap.Logger) (*DatabaseSessionStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(config.DSN)
	case "postgres":
		dialector = postgres.Open(config.DSN)
	case "mysql":
		dialector = mysql.Open(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session_results: %w", err)
	}

	return &DatabaseSessionStore{
		db:     db,
		logger: logger.With(zap.String("component", "database_session_store")),
	}, nil
}

// SaveResult 保存会话结果（同一 session_id 覆盖）
func (s *DatabaseSessionStore) SaveResult(ctx context.Context, result *session.SessionResult) error {
	if result == nil || result.SessionID == "" {
		return ErrInvalidInput
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	record := sessionRecord{
		SessionID:      result.SessionID,
		Status:         string(result.Status),
		IterationCount: result.IterationCount,
		Payload:        payload,
		CreatedAt:      time.Now(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "iteration_count", "payload"}),
		}).
		Create(&record).Error
}

// GetResult 按会话 ID 取回结果
func (s *DatabaseSessionStore) GetResult(ctx context.Context, sessionID string) (*session.SessionResult, error) {
	var record sessionRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var result session.SessionResult
	if err := json.Unmarshal(record.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session result: %w", err)
	}

	return &result, nil
}

// ListResults 返回最多 limit 条结果，最新优先
func (s *DatabaseSessionStore) ListResults(ctx context.Context, limit int) ([]*session.SessionResult, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []sessionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	results := make([]*session.SessionResult, 0, len(records))
	for _, record := range records {
		var result session.SessionResult
		if err := json.Unmarshal(record.Payload, &result); err != nil {
			s.logger.Warn("skipping corrupt session payload",
				zap.String("session_id", record.SessionID),
				zap.Error(err),
			)
			continue
		}
		results = append(results, &result)
	}

	return results, nil
}

// DeleteResult 删除结果
func (s *DatabaseSessionStore) DeleteResult(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&sessionRecord{}).Error
}

// Ping 检查存储是否健康
func (s *DatabaseSessionStore) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close 关闭存储
func (s *DatabaseSessionStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
