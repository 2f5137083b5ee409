package persistence

import (
	"context"
	"sync"

	"github.com/parametriq/designflow/session"
)

// MemorySessionStore 是 SessionStore 的内存实现
// 适合开发和测试。数据在重新启动时丢失。
type MemorySessionStore struct {
	mu      sync.RWMutex
	results map[string]*session.SessionResult
	order   []string // session ids, oldest first
	closed  bool
}

// NewMemorySessionStore 创建内存会话存储
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		results: make(map[string]*session.SessionResult),
	}
}

// SaveResult 保存会话结果
func (s *MemorySessionStore) SaveResult(_ context.Context, result *session.SessionResult) error {
	if result == nil || result.SessionID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, exists := s.results[result.SessionID]; !exists {
		s.order = append(s.order, result.SessionID)
	}
	s.results[result.SessionID] = result

	return nil
}

// GetResult 按会话 ID 取回结果
func (s *MemorySessionStore) GetResult(_ context.Context, sessionID string) (*session.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	result, ok := s.results[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	return result, nil
}

// ListResults 返回最多 limit 条结果，最新优先
func (s *MemorySessionStore) ListResults(_ context.Context, limit int) ([]*session.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	results := make([]*session.SessionResult, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, s.results[s.order[i]])
	}

	return results, nil
}

// DeleteResult 删除结果，不存在时为 no-op
func (s *MemorySessionStore) DeleteResult(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, ok := s.results[sessionID]; !ok {
		return nil
	}

	delete(s.results, sessionID)
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// Ping 检查存储是否健康
func (s *MemorySessionStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close 关闭存储
func (s *MemorySessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
