// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RecordsParsed      prometheus.Counter
	RecordsStored      prometheus.Counter
	RecordsDuplicate   prometheus.Counter
	RecordsMalformed   prometheus.Counter
	IngestErrors       *prometheus.CounterVec
	FeedReconnects     prometheus.Counter
	LastSuccessfulTail prometheus.Gauge

	// Scoring metrics
	ScoringRunsTotal prometheus.Counter
	ScoringDuration  prometheus.Histogram
	WalletsScored    prometheus.Gauge
	RawScoreMin      prometheus.Gauge
	RawScoreMax      prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lendscore"
	}

	return &Metrics{
		// Ingestion metrics
		RecordsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_parsed_total",
			Help:      "Total number of ledger records parsed",
		}),
		RecordsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_stored_total",
			Help:      "Total number of ledger records stored to database",
		}),
		RecordsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_duplicate_total",
			Help:      "Total number of duplicate records skipped",
		}),
		RecordsMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_malformed_total",
			Help:      "Total number of malformed feed entries skipped",
		}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by source",
		}, []string{"source"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_reconnects_total",
			Help:      "Total number of feed reconnection attempts",
		}),
		LastSuccessfulTail: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_feed_entry_timestamp",
			Help:      "Unix timestamp of last feed entry stored",
		}),

		// Scoring metrics
		ScoringRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "runs_total",
			Help:      "Total number of scoring runs",
		}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "duration_seconds",
			Help:      "Scoring run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		WalletsScored: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_scored",
			Help:      "Number of wallets scored in the last run",
		}),
		RawScoreMin: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "raw_score_min",
			Help:      "Minimum raw score of the last run population",
		}),
		RawScoreMax: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "raw_score_max",
			Help:      "Maximum raw score of the last run population",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIngest updates ingestion counters after a load or feed batch.
func RecordIngest(stored, duplicates, malformed int) {
	DefaultMetrics.RecordsParsed.Add(float64(stored + duplicates + malformed))
	DefaultMetrics.RecordsStored.Add(float64(stored))
	DefaultMetrics.RecordsDuplicate.Add(float64(duplicates))
	DefaultMetrics.RecordsMalformed.Add(float64(malformed))
}

// RecordIngestError records an ingestion error by source.
func RecordIngestError(source string) {
	DefaultMetrics.IngestErrors.WithLabelValues(source).Inc()
}

// RecordScoringRun records one completed scoring run.
func RecordScoringRun(wallets int, minRaw, maxRaw, durationSeconds float64) {
	DefaultMetrics.ScoringRunsTotal.Inc()
	DefaultMetrics.ScoringDuration.Observe(durationSeconds)
	DefaultMetrics.WalletsScored.Set(float64(wallets))
	DefaultMetrics.RawScoreMin.Set(minRaw)
	DefaultMetrics.RawScoreMax.Set(maxRaw)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
