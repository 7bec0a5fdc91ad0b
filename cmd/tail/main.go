// Package main tails a live ledger feed into the transaction store.
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
	"lendscore/internal/logging"
	"lendscore/internal/observability"
	chstore "lendscore/internal/storage/clickhouse"
	"lendscore/internal/storage/migrations"
	"lendscore/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	endpoint := flag.String("endpoint", "", "Feed WebSocket endpoint override")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)

	if *endpoint == "" {
		*endpoint = cfg.Feed.Endpoint
	}
	if *endpoint == "" {
		logger.Fatal().Msg("no feed endpoint: set feed.endpoint or pass --endpoint")
	}
	if cfg.Clickhouse.DSN == "" {
		logger.Fatal().Msg("clickhouse.dsn not configured")
	}

	startMetricsServer(*metricsAddr, logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("clickhouse setup failed")
	}
	defer conn.Close()

	tailerCfg := stream.TailerConfig{
		ReconnectDelay:    cfg.Feed.ReconnectDelay,
		MaxReconnectDelay: cfg.Feed.MaxReconnectDelay,
		PingInterval:      cfg.Feed.PingInterval,
		ReadTimeout:       cfg.Feed.ReadTimeout,
		WriteTimeout:      cfg.Feed.WriteTimeout,
	}

	tailer := stream.NewTailer(*endpoint, chstore.NewTransactionStore(conn), &tailerCfg, logger)

	logger.Info().Str("endpoint", *endpoint).Msg("tailing ledger feed")
	err = tailer.Run(ctx)

	stats := tailer.Stats()
	observability.RecordIngest(int(stats.Ingested), int(stats.Duplicates), int(stats.Malformed))
	logger.Info().
		Int64("ingested", stats.Ingested).
		Int64("duplicates", stats.Duplicates).
		Int64("malformed", stats.Malformed).
		Msg("feed tail stopped")

	if err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("tail failed")
	}
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
