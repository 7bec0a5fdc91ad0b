package memory

import (
	"context"
	"sync"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScoringRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.ScoringRun),
	}
}

// Insert adds run metadata. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, run *domain.ScoringRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *run
	s.data[run.RunID] = &cp
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.ScoringRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *run
	return &cp, nil
}

// Latest retrieves the most recently started run.
func (s *RunStore) Latest(_ context.Context) (*domain.ScoringRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ScoringRun
	for _, run := range s.data {
		if latest == nil || run.StartedAt > latest.StartedAt {
			latest = run
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	cp := *latest
	return &cp, nil
}

var _ storage.RunStore = (*RunStore)(nil)
