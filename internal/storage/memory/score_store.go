package memory

import (
	"context"
	"sort"
	"sync"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.ScoreRecord // run_id -> wallet -> record
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[string]map[string]domain.ScoreRecord),
	}
}

// InsertBulk adds all scores of one run atomically.
func (s *ScoreStore) InsertBulk(_ context.Context, scores []domain.ScoreRecord) error {
	if len(scores) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range scores {
		if sc.RunID == "" || sc.Wallet == "" {
			return storage.ErrInvalidInput
		}
		if byWallet, ok := s.data[sc.RunID]; ok {
			if _, exists := byWallet[sc.Wallet]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	for _, sc := range scores {
		byWallet, ok := s.data[sc.RunID]
		if !ok {
			byWallet = make(map[string]domain.ScoreRecord)
			s.data[sc.RunID] = byWallet
		}
		byWallet[sc.Wallet] = sc
	}
	return nil
}

// GetByRun retrieves all scores of a run, ordered by wallet ASC.
func (s *ScoreStore) GetByRun(_ context.Context, runID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byWallet := s.data[runID]
	result := make([]domain.ScoreRecord, 0, len(byWallet))
	for _, sc := range byWallet {
		result = append(result, sc)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Wallet < result[j].Wallet })
	return result, nil
}

// GetByWallet retrieves a wallet's score within a run.
func (s *ScoreStore) GetByWallet(_ context.Context, runID, wallet string) (domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byWallet, ok := s.data[runID]; ok {
		if sc, exists := byWallet[wallet]; exists {
			return sc, nil
		}
	}
	return domain.ScoreRecord{}, storage.ErrNotFound
}

var _ storage.ScoreStore = (*ScoreStore)(nil)
