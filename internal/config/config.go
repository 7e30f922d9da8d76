// Package config defines service configuration structures and loading hooks.
// Values layer defaults, an optional YAML file, and CTRD_-prefixed
// environment variables.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// ClickHouseURL is the event store HTTP endpoint, e.g. "http://localhost:8123".
	ClickHouseURL string `koanf:"clickhouse_url"`

	// ClickHouseDatabase and ClickHouseTable locate the events table.
	ClickHouseDatabase string `koanf:"clickhouse_database"`
	ClickHouseTable    string `koanf:"clickhouse_table"`

	// ClickHouseUsername and ClickHousePassword are optional credentials.
	ClickHouseUsername string `koanf:"clickhouse_username"`
	ClickHousePassword string `koanf:"clickhouse_password"`

	// ClickHouseTimeoutSeconds bounds event store requests.
	ClickHouseTimeoutSeconds int `koanf:"clickhouse_timeout_seconds"`

	// ModelPath is where the trained artifact bundle is persisted.
	ModelPath string `koanf:"model_path"`

	// CacheSize bounds the prediction cache.
	CacheSize int `koanf:"cache_size"`

	// BaselineCTR is the CTR that maps to a 1.0 boost multiplier.
	BaselineCTR float64 `koanf:"baseline_ctr"`

	// MinBoost and MaxBoost clamp the boost multiplier.
	MinBoost float64 `koanf:"min_boost"`
	MaxBoost float64 `koanf:"max_boost"`

	// DefaultDaysBack and DefaultMinImpressions are the training defaults
	// used when a train request omits them.
	DefaultDaysBack       int `koanf:"default_days_back"`
	DefaultMinImpressions int `koanf:"default_min_impressions"`

	// MaxDaysBack caps the training window a caller may request.
	MaxDaysBack int `koanf:"max_days_back"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":8000",
		ClickHouseURL:            "http://localhost:8123",
		ClickHouseDatabase:       "default",
		ClickHouseTable:          "events",
		ClickHouseTimeoutSeconds: 30,
		ModelPath:                "models/ctr_bundle.json",
		CacheSize:                1000,
		BaselineCTR:              0.01,
		MinBoost:                 0.5,
		MaxBoost:                 2.0,
		DefaultDaysBack:          7,
		DefaultMinImpressions:    100,
		MaxDaysBack:              90,
	}
}
