package postgres

import (
	"context"
	"fmt"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// ScoreStore implements storage.ScoreStore using PostgreSQL.
type ScoreStore struct {
	pool *Pool
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(pool *Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// InsertBulk adds all scores of one run atomically.
func (s *ScoreStore) InsertBulk(ctx context.Context, scores []domain.ScoreRecord) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO wallet_scores (run_id, wallet, score, raw_score)
		VALUES ($1, $2, $3, $4)
	`

	for _, sc := range scores {
		if _, err := tx.Exec(ctx, query, sc.RunID, sc.Wallet, sc.Score, sc.RawScore); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert wallet score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRun retrieves all scores of a run, ordered by wallet ASC.
func (s *ScoreStore) GetByRun(ctx context.Context, runID string) ([]domain.ScoreRecord, error) {
	query := `
		SELECT run_id, wallet, score, raw_score
		FROM wallet_scores
		WHERE run_id = $1
		ORDER BY wallet ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get scores by run: %w", err)
	}
	defer rows.Close()

	var result []domain.ScoreRecord
	for rows.Next() {
		var sc domain.ScoreRecord
		if err := rows.Scan(&sc.RunID, &sc.Wallet, &sc.Score, &sc.RawScore); err != nil {
			return nil, fmt.Errorf("scan wallet score: %w", err)
		}
		result = append(result, sc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return result, nil
}

// GetByWallet retrieves a wallet's score within a run.
func (s *ScoreStore) GetByWallet(ctx context.Context, runID, wallet string) (domain.ScoreRecord, error) {
	query := `
		SELECT run_id, wallet, score, raw_score
		FROM wallet_scores
		WHERE run_id = $1 AND wallet = $2
	`

	var sc domain.ScoreRecord
	err := s.pool.QueryRow(ctx, query, runID, wallet).Scan(&sc.RunID, &sc.Wallet, &sc.Score, &sc.RawScore)
	if err != nil {
		if isNotFoundError(err) {
			return domain.ScoreRecord{}, storage.ErrNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("get score by wallet: %w", err)
	}
	return sc, nil
}
