// Package main runs one scoring pass: ledger snapshot → feature vectors →
// raw scores → population-rescaled scores, persisted as a scoring run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lendscore/internal/config"
	"lendscore/internal/domain"
	"lendscore/internal/ingest"
	"lendscore/internal/logging"
	"lendscore/internal/observability"
	"lendscore/internal/pipeline"
	chstore "lendscore/internal/storage/clickhouse"
	"lendscore/internal/storage/migrations"
	pgstore "lendscore/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	ledgerFile := flag.String("file", "", "Score a ledger export file directly instead of the ClickHouse snapshot")
	workers := flag.Int("workers", 0, "Scoring parallelism override (0 = config/GOMAXPROCS)")
	dryRun := flag.Bool("dry-run", false, "Score without persisting results")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger, *ledgerFile, *workers, *dryRun); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("scoring failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ledgerFile string, workers int, dryRun bool) error {
	txs, err := loadSnapshot(ctx, cfg, ledgerFile)
	if err != nil {
		return err
	}
	logger.Info().Int("transactions", len(txs)).Msg("ledger snapshot loaded")

	if workers == 0 {
		workers = cfg.Scoring.Workers
	}

	p := pipeline.New(pipeline.Options{
		DecimalOverrides: cfg.Scoring.DecimalOverrides,
		Workers:          workers,
		Logger:           logger,
	})

	start := time.Now()
	result, err := p.ScoreAll(ctx, txs)
	if err != nil {
		return fmt.Errorf("scoring run: %w", err)
	}
	observability.RecordScoringRun(result.Run.Wallets,
		result.Run.MinRawScore, result.Run.MaxRawScore, time.Since(start).Seconds())

	if dryRun {
		logger.Info().Str("run_id", result.Run.RunID).
			Int("wallets", result.Run.Wallets).
			Msg("dry run, results not persisted")
		return nil
	}

	if err := persist(ctx, cfg, result); err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.Run.RunID).
		Int("wallets", result.Run.Wallets).
		Dur("duration", time.Since(start)).
		Msg("scoring run persisted")
	return nil
}

// loadSnapshot reads the full ledger either from a file or from ClickHouse.
func loadSnapshot(ctx context.Context, cfg *config.Config, ledgerFile string) ([]*domain.Transaction, error) {
	if ledgerFile != "" {
		f, err := os.Open(ledgerFile)
		if err != nil {
			return nil, fmt.Errorf("open ledger file: %w", err)
		}
		defer f.Close()
		return ingest.ReadJSON(f)
	}

	if cfg.Clickhouse.DSN == "" {
		return nil, fmt.Errorf("no ledger source: set clickhouse.dsn or pass --file")
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return chstore.NewTransactionStore(conn).GetAll(ctx)
}

// persist writes run metadata and scores to PostgreSQL.
func persist(ctx context.Context, cfg *config.Config, result *pipeline.Result) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn not configured (use --dry-run to score without persisting)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	if err := pgstore.NewRunStore(pool).Insert(ctx, &result.Run); err != nil {
		return fmt.Errorf("store run metadata: %w", err)
	}
	if err := pgstore.NewScoreStore(pool).InsertBulk(ctx, result.Scores); err != nil {
		return fmt.Errorf("store scores: %w", err)
	}
	return nil
}

// signalContext cancels on SIGINT/SIGTERM; a second signal forces exit.
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		sig = <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
		os.Exit(1)
	}()

	return ctx, cancel
}
