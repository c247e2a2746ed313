package events

import (
	"context"
	"sync"
)

// MemoryStore keeps events in memory. It serves as the always-on sink for
// introspection and as the Publisher in tests.
type MemoryStore struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemoryStore returns an empty store without a retention limit.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewBoundedMemoryStore returns a store that retains only the most recent
// limit events, so a long-running process cannot grow it without bound.
func NewBoundedMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit}
}

// Emit validates and records a single event.
func (s *MemoryStore) Emit(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(event)
	return nil
}

// Deliver records a batch. Events arriving here already passed validation.
func (s *MemoryStore) Deliver(ctx context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(batch...)
	return nil
}

// record appends under the caller-held lock, evicting the oldest entries
// once a bounded store exceeds its limit.
func (s *MemoryStore) record(batch ...Event) {
	s.events = append(s.events, batch...)
	if s.limit > 0 && len(s.events) > s.limit {
		trimmed := make([]Event, s.limit)
		copy(trimmed, s.events[len(s.events)-s.limit:])
		s.events = trimmed
	}
}

// List returns a copy of all recorded events in arrival order.
func (s *MemoryStore) List() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByAction filters recorded events by action.
func (s *MemoryStore) ByAction(action Action) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
