package reporting

import "time"

// BucketWidth is the score span of one distribution bucket.
const BucketWidth = 100

// Report summarizes one scoring run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	StartedAt   int64 // Unix seconds
	FinishedAt  int64 // Unix seconds

	// Raw-score population bounds before rescaling
	MinRawScore float64
	MaxRawScore float64

	// Summary over final scores
	Summary ScoreSummary

	// Distribution buckets of width 100 over [0, 1000]
	Distribution []DistributionBucket

	// Extremes, sorted by score
	TopWallets    []WalletRow
	BottomWallets []WalletRow
}

// ScoreSummary contains aggregate statistics over the final scores.
type ScoreSummary struct {
	Wallets int
	Mean    float64
	Median  float64
	Min     int
	Max     int
}

// DistributionBucket counts wallets scoring in [Lo, Hi). The last bucket
// is [900, 1000] inclusive.
type DistributionBucket struct {
	Lo    int
	Hi    int
	Count int
	Share float64 // fraction of all wallets, 0 when the run is empty
}

// WalletRow is one wallet's result in an extremes table.
type WalletRow struct {
	Wallet   string
	Score    int
	RawScore float64
}
