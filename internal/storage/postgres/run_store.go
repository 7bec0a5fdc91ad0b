package postgres

import (
	"context"
	"fmt"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds run metadata. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.ScoringRun) error {
	query := `
		INSERT INTO scoring_runs (
			run_id, started_at, finished_at, wallets, min_raw_score, max_raw_score
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.StartedAt, run.FinishedAt,
		run.Wallets, run.MinRawScore, run.MaxRawScore,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scoring run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.ScoringRun, error) {
	query := `
		SELECT run_id, started_at, finished_at, wallets, min_raw_score, max_raw_score
		FROM scoring_runs
		WHERE run_id = $1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scoring run by id: %w", err)
	}
	return run, nil
}

// Latest retrieves the most recently started run.
func (s *RunStore) Latest(ctx context.Context) (*domain.ScoringRun, error) {
	query := `
		SELECT run_id, started_at, finished_at, wallets, min_raw_score, max_raw_score
		FROM scoring_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT 1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest scoring run: %w", err)
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.ScoringRun, error) {
	var run domain.ScoringRun
	err := row.Scan(
		&run.RunID, &run.StartedAt, &run.FinishedAt,
		&run.Wallets, &run.MinRawScore, &run.MaxRawScore,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
