package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// MemoryStore keeps run records in memory, for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]harvest.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]harvest.RunRecord)}
}

func (s *MemoryStore) CreateRun(ctx context.Context, rec harvest.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[rec.ID]; exists {
		return fmt.Errorf("run %s already exists", rec.ID)
	}
	s.runs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) UpdateRun(ctx context.Context, rec harvest.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[rec.ID]; !exists {
		return fmt.Errorf("update run %s: %w", rec.ID, ErrNotFound)
	}
	s.runs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id string) (harvest.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return harvest.RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	return rec, nil
}
