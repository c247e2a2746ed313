package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps fixed-window counters in process memory. Counters reset
// in place when their window lapses, so the map holds one entry per key.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*counter
}

type counter struct {
	count   int
	resetAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*counter)}
}

// Allow counts the request against the key's current window.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w := s.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &counter{resetAt: now.Add(window)}
		s.windows[key] = w
	}

	w.count++
	if w.count > limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	return Result{Allowed: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}
