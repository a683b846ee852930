package store

import (
	"context"
	"sync"

	"github.com/soc-pilot/drc/internal/result"
)

// MemoryStore keeps encoded reports in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, projectID string) (*result.DRCResult, error) {
	s.mu.RLock()
	b, ok := s.reports[projectID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeJSON(b)
}

func (s *MemoryStore) Put(_ context.Context, projectID string, res *result.DRCResult) error {
	b, err := encodeJSON(res)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.reports[projectID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, projectID string) error {
	s.mu.Lock()
	delete(s.reports, projectID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
