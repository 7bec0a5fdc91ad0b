package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// Loader reads ledger exports and persists them batch by batch.
type Loader struct {
	store     storage.TransactionStore
	batchSize int
	logger    zerolog.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Store     storage.TransactionStore
	BatchSize int
	Logger    zerolog.Logger
}

// NewLoader creates a new ledger loader.
func NewLoader(opts LoaderOptions) *Loader {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}
	return &Loader{
		store:     opts.Store,
		batchSize: batchSize,
		logger:    opts.Logger,
	}
}

// Result contains statistics from one load operation.
type Result struct {
	RecordsIngested   int
	DuplicatesSkipped int
	Errors            int
	Duration          time.Duration
}

// LoadFile reads a ledger export and stores it. Format is chosen by file
// extension: .csv is parsed as CSV, anything else as JSON.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return l.loadWith(ctx, f, ReadCSV)
	}
	return l.loadWith(ctx, f, ReadJSON)
}

// Load reads a JSON ledger export from r and stores it.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Result, error) {
	return l.loadWith(ctx, r, ReadJSON)
}

func (l *Loader) loadWith(ctx context.Context, r io.Reader, read func(io.Reader) ([]*domain.Transaction, error)) (*Result, error) {
	start := time.Now()

	txs, err := read(r)
	if err != nil {
		return nil, err
	}
	l.logger.Info().Int("records", len(txs)).Msg("parsed ledger export")

	result := &Result{}
	stored, dupes, errs := l.storeTransactions(ctx, txs)
	result.RecordsIngested = stored
	result.DuplicatesSkipped = dupes
	result.Errors = errs
	result.Duration = time.Since(start)

	l.logger.Info().
		Int("ingested", result.RecordsIngested).
		Int("duplicates", result.DuplicatesSkipped).
		Int("errors", result.Errors).
		Dur("duration", result.Duration).
		Msg("ledger load complete")

	return result, nil
}

// storeTransactions stores records in batches, handling duplicates.
func (l *Loader) storeTransactions(ctx context.Context, txs []*domain.Transaction) (stored, dupes, errs int) {
	for i := 0; i < len(txs); i += l.batchSize {
		end := i + l.batchSize
		if end > len(txs) {
			end = len(txs)
		}

		batch := txs[i:end]
		err := l.store.InsertBulk(ctx, batch)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Insert one by one to find which are duplicates
				for _, tx := range batch {
					if err := l.store.Insert(ctx, tx); err != nil {
						if errors.Is(err, storage.ErrDuplicateKey) {
							dupes++
						} else {
							errs++
						}
					} else {
						stored++
					}
				}
			} else {
				errs += len(batch)
				l.logger.Error().Err(err).Int("batch_start", i).Msg("store batch failed")
			}
		} else {
			stored += len(batch)
		}
	}
	return stored, dupes, errs
}
