package storage

import (
	"context"

	"lendscore/internal/domain"
)

// TransactionStore provides access to the raw lending-protocol ledger.
type TransactionStore interface {
	// Insert adds one ledger record. Returns ErrDuplicateKey if tx_id exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// InsertBulk adds multiple records atomically. Fails the entire batch on
	// any duplicate, including intra-batch duplicates.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetByWallet retrieves all records for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.Transaction, error)

	// GetAll retrieves the full ledger snapshot, ordered by timestamp ASC,
	// tx_id ASC. The scoring pipeline consumes this in one batch.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// Count reports the number of stored records.
	Count(ctx context.Context) (int64, error)
}

// ScoreStore persists the per-wallet output of a scoring run.
type ScoreStore interface {
	// InsertBulk adds all scores of one run atomically.
	InsertBulk(ctx context.Context, scores []domain.ScoreRecord) error

	// GetByRun retrieves all scores of a run, ordered by wallet ASC.
	GetByRun(ctx context.Context, runID string) ([]domain.ScoreRecord, error)

	// GetByWallet retrieves a wallet's score within a run.
	// Returns ErrNotFound if the run did not score the wallet.
	GetByWallet(ctx context.Context, runID, wallet string) (domain.ScoreRecord, error)
}

// RunStore persists scoring-run metadata.
type RunStore interface {
	// Insert adds run metadata. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.ScoringRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ScoringRun, error)

	// Latest retrieves the most recently started run.
	// Returns ErrNotFound when no runs exist.
	Latest(ctx context.Context) (*domain.ScoringRun, error)
}
