package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"lendscore/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Clickhouse ClickhouseConfig `mapstructure:"clickhouse"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PostgresConfig encapsulates score/run store connectivity.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ClickhouseConfig encapsulates ledger store connectivity.
type ClickhouseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// FeedConfig covers the live ledger feed.
type FeedConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// IngestConfig sets batch-load behaviour.
type IngestConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// ScoringConfig governs the scoring pipeline.
type ScoringConfig struct {
	// Workers caps scoring parallelism; 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// DecimalOverrides maps asset symbols to smallest-unit exponents,
	// extending the built-in table.
	DecimalOverrides map[string]int32 `mapstructure:"decimal_overrides"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LENDSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lendscore")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("feed.reconnect_delay", "1s")
	v.SetDefault("feed.max_reconnect_delay", "30s")
	v.SetDefault("feed.ping_interval", "30s")
	v.SetDefault("feed.read_timeout", "60s")
	v.SetDefault("feed.write_timeout", "10s")

	v.SetDefault("ingest.batch_size", 1000)

	v.SetDefault("scoring.workers", 0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9090")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be greater than zero")
	}
	if c.Scoring.Workers < 0 {
		return fmt.Errorf("scoring.workers cannot be negative")
	}
	for symbol, exp := range c.Scoring.DecimalOverrides {
		if exp < 0 || exp > 38 {
			return fmt.Errorf("scoring.decimal_overrides[%s] out of range: %d", symbol, exp)
		}
	}
	if c.Feed.ReconnectDelay <= 0 {
		return fmt.Errorf("feed.reconnect_delay must be greater than zero")
	}
	return nil
}
