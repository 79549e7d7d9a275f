// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SRIM_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/srim/internal/domain/histogram"
	"github.com/okian/srim/internal/domain/parser"
)

// DisabledAltDelimiter turns off alternate delimiter normalization.
const DisabledAltDelimiter = -1

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the body of POST /process.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RunCapacity bounds how many processed runs are kept in memory.
	RunCapacity int `koanf:"run_capacity"`

	// HistogramBins is the default bin count for layer histograms.
	HistogramBins int `koanf:"histogram_bins"`

	// LayerIndexBase numbers the first surviving layer, 0 or 1.
	LayerIndexBase int `koanf:"layer_index_base"`

	// Delimiter is the field separator byte of the collision log.
	Delimiter int `koanf:"delimiter"`

	// AltDelimiter is rewritten to Delimiter before splitting; -1 disables it.
	AltDelimiter int `koanf:"alt_delimiter"`

	// ExcludeWords disqualify an otherwise matching data line.
	ExcludeWords []string `koanf:"exclude_words"`

	// EnergyDivisor converts the raw energy column, keV to MeV by default.
	EnergyDivisor float64 `koanf:"energy_divisor"`

	// MinFields is the minimum number of split parts in a data line.
	MinFields int `koanf:"min_fields"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	f := parser.DefaultFormat()
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		MetricsEnabled: true,
		Addr:           ":9080",
		MaxUploadBytes: 256 << 20,
		RunCapacity:    32,
		HistogramBins:  histogram.DefaultBins,
		LayerIndexBase: 0,
		Delimiter:      int(f.Delimiter),
		AltDelimiter:   int(f.AltDelimiter),
		ExcludeWords:   f.ExcludeWords,
		EnergyDivisor:  f.EnergyDivisor,
		MinFields:      f.MinFields,
	}
}

// ParserFormat maps the parsing keys onto a parser.Format.
func (c *Config) ParserFormat() parser.Format {
	f := parser.Format{
		Delimiter:     byte(c.Delimiter),
		NormalizeAlt:  c.AltDelimiter != DisabledAltDelimiter,
		ExcludeWords:  c.ExcludeWords,
		EnergyDivisor: c.EnergyDivisor,
		MinFields:     c.MinFields,
	}
	if f.NormalizeAlt {
		f.AltDelimiter = byte(c.AltDelimiter)
	}
	return f
}

// Validate checks every key and returns the first problem wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !oneOf(c.LogLevel, "debug", "info", "warn", "warning", "error"):
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	case !oneOf(c.LogFormat, "text", "json"):
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.RunCapacity <= 0:
		return fmt.Errorf("%w: run_capacity must be positive", ErrInvalidConfig)
	case c.HistogramBins <= 0 || c.HistogramBins > histogram.MaxBins:
		return fmt.Errorf("%w: histogram_bins must be in 1..%d", ErrInvalidConfig, histogram.MaxBins)
	case c.LayerIndexBase != 0 && c.LayerIndexBase != 1:
		return fmt.Errorf("%w: layer_index_base must be 0 or 1", ErrInvalidConfig)
	case c.Delimiter < 0 || c.Delimiter > 255:
		return fmt.Errorf("%w: delimiter must be a byte value", ErrInvalidConfig)
	case c.AltDelimiter < DisabledAltDelimiter || c.AltDelimiter > 255:
		return fmt.Errorf("%w: alt_delimiter must be a byte value or -1", ErrInvalidConfig)
	}
	if err := c.ParserFormat().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
