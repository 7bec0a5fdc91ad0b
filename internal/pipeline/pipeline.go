// Package pipeline wires the scoring stages into one batch run:
// valuation → feature aggregation → rule scoring → population rescaling.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lendscore/internal/domain"
	"lendscore/internal/features"
	"lendscore/internal/pricing"
	"lendscore/internal/scoring"
)

// Options configure a Pipeline.
type Options struct {
	// DecimalOverrides extend or replace entries of the built-in
	// asset-decimals table for this pipeline instance.
	DecimalOverrides map[string]int32

	// Workers bounds the per-wallet fan-out. Defaults to GOMAXPROCS.
	Workers int

	Logger zerolog.Logger
}

// Pipeline scores a full transaction snapshot. A single instance is reusable
// across runs; each run is independent.
type Pipeline struct {
	aggregator *features.Aggregator
	workers    int
	logger     zerolog.Logger
}

// New constructs a Pipeline.
func New(opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	valuer := pricing.NewValuer(pricing.NewDecimalTable(opts.DecimalOverrides))

	return &Pipeline{
		aggregator: features.NewAggregator(valuer),
		workers:    workers,
		logger:     opts.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Result bundles the scores with run metadata.
type Result struct {
	Run    domain.ScoringRun
	Scores []domain.ScoreRecord
}

// ScoreAll runs the full pipeline over one input snapshot.
//
// Phase 1 computes every wallet's feature vector and raw score; phase 2 only
// starts after phase 1 has finished for all wallets, because the rescaling
// bounds come from the whole population. Both phases fan out per wallet;
// output is sorted by wallet so permuting the input (or the goroutine
// schedule) cannot change the result.
//
// Empty input is success: an empty score set under a run with zero wallets.
func (p *Pipeline) ScoreAll(ctx context.Context, txs []*domain.Transaction) (*Result, error) {
	run := domain.ScoringRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().Unix(),
	}

	vectors := p.aggregator.Aggregate(txs)

	p.logger.Info().
		Str("run_id", run.RunID).
		Int("transactions", len(txs)).
		Int("wallets", len(vectors)).
		Msg("aggregated wallet features")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 1: raw scores, parallel per wallet.
	raw := make([]float64, len(vectors))
	p.forEach(len(vectors), func(i int) {
		raw[i] = scoring.RawScore(vectors[i])
	})

	// Barrier: population bounds need every raw score.
	minRaw, maxRaw, ok := scoring.Bounds(raw)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: rescale, again parallel per wallet.
	scores := make([]domain.ScoreRecord, len(vectors))
	p.forEach(len(vectors), func(i int) {
		scores[i] = domain.ScoreRecord{
			RunID:    run.RunID,
			Wallet:   vectors[i].Wallet,
			Score:    scoring.RescaleOne(raw[i], minRaw, maxRaw),
			RawScore: raw[i],
		}
	})

	sort.Slice(scores, func(i, j int) bool { return scores[i].Wallet < scores[j].Wallet })

	run.FinishedAt = time.Now().Unix()
	run.Wallets = len(scores)
	if ok {
		run.MinRawScore = minRaw
		run.MaxRawScore = maxRaw
	}

	p.logger.Info().
		Str("run_id", run.RunID).
		Int("wallets", run.Wallets).
		Float64("min_raw", run.MinRawScore).
		Float64("max_raw", run.MaxRawScore).
		Msg("scoring run complete")

	return &Result{Run: run, Scores: scores}, nil
}

// forEach applies fn to every index, fanning out across the worker pool.
// fn must only touch its own index; there is no cross-index state.
func (p *Pipeline) forEach(n int, fn func(i int)) {
	if n == 0 {
		return
	}

	workers := p.workers
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	next := make(chan int)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
