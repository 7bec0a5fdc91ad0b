package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lendscore/internal/domain"
	"lendscore/internal/scoring"
	"lendscore/internal/storage"
)

// ExtremesLimit is the number of wallets shown in the top/bottom tables.
const ExtremesLimit = 10

// Generator produces run reports from stored scores.
type Generator struct {
	runStore   storage.RunStore
	scoreStore storage.ScoreStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore, scoreStore storage.ScoreStore) *Generator {
	return &Generator{
		runStore:   runStore,
		scoreStore: scoreStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for the given run. An empty runID selects the
// most recent run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	var (
		run *domain.ScoringRun
		err error
	)
	if runID == "" {
		run, err = g.runStore.Latest(ctx)
	} else {
		run, err = g.runStore.GetByID(ctx, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load scoring run: %w", err)
	}

	scores, err := g.scoreStore.GetByRun(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("load scores for run %s: %w", run.RunID, err)
	}

	return &Report{
		GeneratedAt:   g.now(),
		RunID:         run.RunID,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		MinRawScore:   run.MinRawScore,
		MaxRawScore:   run.MaxRawScore,
		Summary:       summarize(scores),
		Distribution:  bucketize(scores),
		TopWallets:    extremes(scores, true),
		BottomWallets: extremes(scores, false),
	}, nil
}

// summarize computes aggregate statistics over final scores.
func summarize(scores []domain.ScoreRecord) ScoreSummary {
	s := ScoreSummary{Wallets: len(scores)}
	if len(scores) == 0 {
		return s
	}

	sorted := make([]int, len(scores))
	sum := 0
	for i, sc := range scores {
		sorted[i] = sc.Score
		sum += sc.Score
	}
	sort.Ints(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = float64(sum) / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		s.Median = float64(sorted[mid])
	}
	return s
}

// bucketize counts wallets per score bucket of width 100. A score of 1000
// lands in the last bucket.
func bucketize(scores []domain.ScoreRecord) []DistributionBucket {
	buckets := make([]DistributionBucket, scoring.MaxScore/BucketWidth)
	for i := range buckets {
		buckets[i].Lo = i * BucketWidth
		buckets[i].Hi = (i + 1) * BucketWidth
	}

	for _, sc := range scores {
		idx := sc.Score / BucketWidth
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx].Count++
	}

	if len(scores) > 0 {
		for i := range buckets {
			buckets[i].Share = float64(buckets[i].Count) / float64(len(scores))
		}
	}
	return buckets
}

// extremes returns the top (or bottom) wallets by score. Ties break on
// wallet address so output is stable across runs.
func extremes(scores []domain.ScoreRecord, top bool) []WalletRow {
	rows := make([]WalletRow, len(scores))
	for i, sc := range scores {
		rows[i] = WalletRow{Wallet: sc.Wallet, Score: sc.Score, RawScore: sc.RawScore}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			if top {
				return rows[i].Score > rows[j].Score
			}
			return rows[i].Score < rows[j].Score
		}
		return rows[i].Wallet < rows[j].Wallet
	})

	if len(rows) > ExtremesLimit {
		rows = rows[:ExtremesLimit]
	}
	return rows
}
