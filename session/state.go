package session

import "sync"

// sharedState is the session-scoped key→typed-value store. It is the only
// concurrently mutable state in the engine core and is guarded by its own
// lock so agents and external callers can touch it mid-iteration.
type sharedState struct {
	mu     sync.RWMutex
	values map[string]any
}

func newSharedState() *sharedState {
	return &sharedState{values: make(map[string]any)}
}

func (s *sharedState) set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *sharedState) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// SetSharedState stores a value under key for the session's lifetime.
// Setting an existing key overwrites it.
func (s *CollaborativeSession) SetSharedState(key string, value any) {
	s.state.set(key, value)
}

// GetSharedState returns the value stored under key when it exists and was
// stored as T. A missing key or a type mismatch yields T's zero value, not
// an error: values are stored as their original type and only returned
// when the requested type matches.
func GetSharedState[T any](s *CollaborativeSession, key string) T {
	var zero T

	v, ok := s.state.get(key)
	if !ok {
		return zero
	}

	typed, ok := v.(T)
	if !ok {
		return zero
	}

	return typed
}
