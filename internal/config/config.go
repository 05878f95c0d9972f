// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/eventrank/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds concurrent scoring within a batch.
	WorkerCount int `koanf:"worker_count"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// Weights maps factor names to their share of the overall score.
	Weights map[string]float64 `koanf:"weights"`

	// MinScoreThreshold and HighScoreThreshold split scores into display bands.
	MinScoreThreshold  int `koanf:"min_score_threshold"`
	HighScoreThreshold int `koanf:"high_score_threshold"`

	// ICP is the ideal customer profile matched by ICP and speaking scoring.
	ICP scoring.Profile `koanf:"icp"`

	// Competitors is the registry competitor mentions are matched against.
	Competitors []scoring.Competitor `koanf:"competitors"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		MaxRankingLimit: 100,
		Weights: map[string]float64{
			"icp":         0.30,
			"competitors": 0.20,
			"audience":    0.20,
			"speaking":    0.15,
			"commercials": 0.10,
			"timing":      0.05,
		},
		MinScoreThreshold:  60,
		HighScoreThreshold: 80,
	}
}

// Validate checks the settings that do not need the scoring builder.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxRankingLimit < 1:
		return fmt.Errorf("%w: max_ranking_limit must be positive, got %d", ErrInvalidConfig, c.MaxRankingLimit)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i, comp := range c.Competitors {
		if comp.Name == "" {
			return fmt.Errorf("%w: competitors[%d] has no name", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Thresholds returns the configured display bands.
func (c *Config) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{Min: c.MinScoreThreshold, High: c.HighScoreThreshold}
}

// WeightConfig builds and validates the configured weights.
func (c *Config) WeightConfig() (scoring.WeightConfig, error) {
	w, err := scoring.WeightsFromMap(c.Weights)
	if err != nil {
		return scoring.WeightConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return w, nil
}
