// Package config defines epiclock configuration and its loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/epiclock/pkg/logger"
)

// Output formats accepted by the format key.
var formats = []string{"text", "json", "yaml", "yml"}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Format selects the report format: text, json or yaml.
	Format string `koanf:"format"`

	// MValues converts subject M-values to beta-values before scoring.
	MValues bool `koanf:"m_values"`

	// ParallelModels evaluates each model on its own goroutine.
	ParallelModels bool `koanf:"parallel_models"`

	// CoefficientsDir replaces the embedded tables with <dir>/<model>.csv.
	CoefficientsDir string `koanf:"coefficients_dir"`

	// Models restricts evaluation to these model keys. Empty means all.
	Models []string `koanf:"models"`

	// Workers bounds how many subject files are scored at once. Zero means
	// one per CPU.
	Workers int `koanf:"workers"`

	// MetricsFile receives Prometheus text exposition after each run.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Format:   "text",
	}
}

// Validate checks values that cannot be verified by their type alone.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if !slices.Contains(formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("%w: format %q (want one of text, json, yaml)", ErrInvalidConfig, c.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	for _, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: models must not contain empty keys", ErrInvalidConfig)
		}
	}
	return nil
}
