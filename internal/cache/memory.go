package cache

import (
	"context"
	"sync"
	"time"

	"github.com/agromandi-lab/agromandi/internal/core/market"
)

type memoryEntry struct {
	result    market.AggregationResult
	writtenAt time.Time
}

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	nowFn   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (*market.AggregationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key.String()]
	if !ok || s.nowFn().Sub(e.writtenAt) >= s.ttl {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modification.
	result := e.result
	result.Timeseries = append([]market.PricePoint(nil), e.result.Timeseries...)
	return &result, nil
}

func (s *MemoryStore) Put(_ context.Context, key Key, result *market.AggregationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *result
	stored.Timeseries = append([]market.PricePoint(nil), result.Timeseries...)
	s.entries[key.String()] = memoryEntry{
		result:    stored,
		writtenAt: s.nowFn(),
	}
	return nil
}
