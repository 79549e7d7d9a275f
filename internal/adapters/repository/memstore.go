package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/pkg/metrics"
)

const defaultCapacity = 32

// MemoryStore is a bounded, mutex-guarded Store. Runs are evicted oldest first.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string // oldest first
	runs     map[string]model.Run
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		capacity: defaultCapacity,
		runs:     make(map[string]model.Run),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store. Saving an existing id replaces it and marks it newest.
func (s *MemoryStore) Save(_ context.Context, run model.Run) error {
	if run.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == run.ID })
	}
	for len(s.order) >= s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	s.order = append(s.order, run.ID)
	s.runs[run.ID] = run

	metrics.UpdateRunsStored(len(s.order))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return run, nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(_ context.Context) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return model.Run{}, ErrNotFound
	}
	return s.runs[s.order[len(s.order)-1]], nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
