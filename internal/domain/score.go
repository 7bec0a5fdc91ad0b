package domain

// ScoreRecord is the terminal artifact of a scoring run: one bounded
// reputation score per distinct wallet observed in the input.
type ScoreRecord struct {
	RunID    string
	Wallet   string
	Score    int     // final population-rescaled score in [0, 1000]
	RawScore float64 // unbounded rule-formula output, kept for reporting
}

// ScoringRun captures metadata about one full pipeline execution.
// Raw score magnitudes are only comparable within a single run, so reports
// always reference the run they were produced by.
type ScoringRun struct {
	RunID       string
	StartedAt   int64 // Unix seconds
	FinishedAt  int64
	Wallets     int
	MinRawScore float64
	MaxRawScore float64
}
