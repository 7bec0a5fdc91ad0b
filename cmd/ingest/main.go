// Package main loads a ledger export file into the transaction store.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"lendscore/internal/config"
	"lendscore/internal/ingest"
	"lendscore/internal/logging"
	"lendscore/internal/observability"
	chstore "lendscore/internal/storage/clickhouse"
	"lendscore/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	file := flag.String("file", "", "Ledger export file (.json, .ndjson, or .csv)")
	batchSize := flag.Int("batch-size", 0, "Insert batch size override")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)

	if *file == "" {
		logger.Fatal().Msg("no input: pass --file")
	}
	if cfg.Clickhouse.DSN == "" {
		logger.Fatal().Msg("clickhouse.dsn not configured")
	}

	startMetricsServer(*metricsAddr, logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger, *file, *batchSize); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("ingest failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, file string, batchSize int) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	if batchSize == 0 {
		batchSize = cfg.Ingest.BatchSize
	}

	loader := ingest.NewLoader(ingest.LoaderOptions{
		Store:     chstore.NewTransactionStore(conn),
		BatchSize: batchSize,
		Logger:    logger,
	})

	result, err := loader.LoadFile(ctx, file)
	if err != nil {
		return err
	}
	observability.RecordIngest(result.RecordsIngested, result.DuplicatesSkipped, 0)
	if result.Errors > 0 {
		observability.RecordIngestError("file")
		return fmt.Errorf("%d records failed to store", result.Errors)
	}
	return nil
}

func startMetricsServer(addr string, logger zerolog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
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
