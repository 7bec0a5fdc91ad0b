// Package main renders a report for a stored scoring run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lendscore/internal/config"
	"lendscore/internal/logging"
	"lendscore/internal/observability"
	"lendscore/internal/reporting"
	"lendscore/internal/storage/migrations"
	pgstore "lendscore/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	runID := flag.String("run", "", "Run ID (empty = latest run)")
	format := flag.String("format", "table", "Output format: table, markdown, or csv")
	out := flag.String("out", "", "Output file (empty = stdout)")
	histogram := flag.String("histogram", "", "Also write a PNG score histogram to this path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)

	if cfg.Postgres.DSN == "" {
		logger.Fatal().Msg("postgres.dsn not configured")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres migrations failed")
	}

	runStore := pgstore.NewRunStore(pool)
	scoreStore := pgstore.NewScoreStore(pool)

	gen := reporting.NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(ctx, *runID)
	if err != nil {
		logger.Fatal().Err(err).Msg("report generation failed")
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal().Err(err).Msg("create output file failed")
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "table":
		reporting.RenderTable(w, report)
	case "markdown":
		fmt.Fprint(w, reporting.RenderMarkdown(report))
	case "csv":
		scores, err := scoreStore.GetByRun(ctx, report.RunID)
		if err != nil {
			logger.Fatal().Err(err).Msg("load scores failed")
		}
		fmt.Fprint(w, reporting.RenderCSV(scores))
	default:
		logger.Fatal().Str("format", *format).Msg("unknown output format")
	}

	if *histogram != "" {
		f, err := os.Create(*histogram)
		if err != nil {
			logger.Fatal().Err(err).Msg("create histogram file failed")
		}
		defer f.Close()
		if err := reporting.RenderHistogram(f, report); err != nil {
			logger.Fatal().Err(err).Msg("render histogram failed")
		}
		logger.Info().Str("path", *histogram).Msg("histogram written")
	}

	observability.RecordReportGenerated()
}
