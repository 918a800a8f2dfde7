package history

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent runs in memory, dropping the
// oldest once the limit is reached
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
	limit int
}

// NewMemoryStore creates a memory store retaining at most limit runs
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		runs:  map[string]*Run{},
		limit: limit,
	}
}

func (s *MemoryStore) Record(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.order = append([]string{run.ID}, s.order...)
	for len(s.order) > s.limit {
		last := s.order[len(s.order)-1]
		s.order = s.order[:len(s.order)-1]
		delete(s.runs, last)
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (s *MemoryStore) Recent(
	_ context.Context, limit int,
) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	res := make([]*Run, 0, limit)
	for _, id := range s.order[:limit] {
		res = append(res, s.runs[id])
	}
	return res, nil
}
