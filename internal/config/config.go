// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/risk"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, mirrors logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the dashboard HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// ModelDir holds the fitted model parameter files.
	ModelDir string `koanf:"model_dir"`

	// RiskWeights maps factor name to its weight in the composite risk.
	RiskWeights map[string]float64 `koanf:"risk_weights"`

	// RiskThresholds are the tier lower bounds on the normalized scale.
	RiskThresholds risk.Thresholds `koanf:"risk_thresholds"`

	// Normalization selects the population transform: minmax or zscore.
	Normalization string `koanf:"normalization"`

	// ScoreMin and ScoreMax bound the normalized output range.
	ScoreMin float64 `koanf:"score_min"`
	ScoreMax float64 `koanf:"score_max"`

	// BatchSize is how many employees the stream pump groups per batch.
	BatchSize int `koanf:"batch_size"`

	// BatchIntervalMS paces the stream pump between batches.
	BatchIntervalMS int `koanf:"batch_interval_ms"`

	// QueueSize bounds the in-memory batch queue.
	QueueSize int `koanf:"queue_size"`

	// MaxScoresLimit caps GET /scores?limit.
	MaxScoresLimit int `koanf:"max_scores_limit"`

	// RawCSV is the employee activity log consumed by the stream pump.
	RawCSV string `koanf:"raw_csv"`

	// ScoredCSV and ProgressCSV are rewritten after every batch.
	ScoredCSV   string `koanf:"scored_csv"`
	ProgressCSV string `koanf:"progress_csv"`

	// JournalFile is the rotating JSONL journal of scored batches.
	// Empty disables the journal.
	JournalFile       string `koanf:"journal_file"`
	JournalMaxSizeMB  int    `koanf:"journal_max_size_mb"`
	JournalMaxBackups int    `koanf:"journal_max_backups"`
}

// New creates a Config with defaults. The weight and threshold defaults
// match the fitted models' documented configuration.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		ModelDir:          "data/models",
		RiskWeights:       risk.DefaultWeights(),
		RiskThresholds:    risk.DefaultThresholds(),
		Normalization:     string(risk.MethodMinMax),
		ScoreMin:          0,
		ScoreMax:          100,
		BatchSize:         10,
		BatchIntervalMS:   5000,
		QueueSize:         64,
		MaxScoresLimit:    100,
		RawCSV:            "data/raw/employee_logs.csv",
		ScoredCSV:         "data/output/scored_users.csv",
		ProgressCSV:       "data/output/batch_metadata.csv",
		JournalFile:       "",
		JournalMaxSizeMB:  50,
		JournalMaxBackups: 5,
	}
}

// Validate fails fast on any configuration that would corrupt scoring:
// invalid weights, thresholds, normalization settings, or pump pacing.
// Called before any batch is accepted.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := risk.NewComposer(c.RiskWeights); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := risk.NewNormalizer(risk.Method(c.Normalization), c.ScoreMin, c.ScoreMax); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.RiskThresholds.Validate(c.ScoreMin, c.ScoreMax); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1", ErrInvalidConfig)
	}
	if c.BatchIntervalMS < 0 {
		return fmt.Errorf("%w: batch_interval_ms must not be negative", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	}
	if c.MaxScoresLimit < 1 {
		return fmt.Errorf("%w: max_scores_limit must be at least 1", ErrInvalidConfig)
	}
	return nil
}
