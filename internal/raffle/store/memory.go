// Package store persists the archive of settled raffle epochs.
package store

import (
	"context"
	"sort"
	"sync"

	"tombola/internal/raffle/models"
	"tombola/pkg/platform/sentinel"
)

// Memory is an in-memory epoch archive for tests and single-node
// development setups.
type Memory struct {
	mu      sync.RWMutex
	records map[uint64]models.EpochRecord
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{records: make(map[uint64]models.EpochRecord)}
}

// Append stores the record of a settled epoch. An epoch settles at most
// once, so appending the same epoch twice is a conflict.
func (s *Memory) Append(_ context.Context, record models.EpochRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Epoch]; ok {
		return sentinel.ErrConflict
	}
	s.records[record.Epoch] = record
	return nil
}

// List returns up to limit settled epochs, newest first.
func (s *Memory) List(_ context.Context, limit int) ([]models.EpochRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.EpochRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Epoch > records[j].Epoch })

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
