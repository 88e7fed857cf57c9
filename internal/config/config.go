// Package config defines process configuration and the layered loader that
// fills it from defaults, an optional YAML file and GRIDCAST_ env vars.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/projection"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the points tables and weekly ranking exports.
	DataDir string `koanf:"data_dir"`

	// Season overrides the current season year; 0 derives it from the files.
	Season int `koanf:"season"`

	// DefaultFormat is used when a request omits the scoring format.
	DefaultFormat string `koanf:"default_format"`

	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`

	// MaxProjectionLimit caps GET /projections?limit.
	MaxProjectionLimit int `koanf:"max_projection_limit"`

	// ArchivePath is the SQLite run archive. Empty disables archiving.
	ArchivePath string `koanf:"archive_path"`

	// RecomputeRate and RecomputeBurst throttle POST /recompute.
	RecomputeRate  float64 `koanf:"recompute_rate"`
	RecomputeBurst int     `koanf:"recompute_burst"`

	BaselineDepth    int     `koanf:"baseline_depth"`
	HistoryDepth     int     `koanf:"history_depth"`
	MinAccuracyWeeks int     `koanf:"min_accuracy_weeks"`
	MinOverrideGames int     `koanf:"min_override_games"`
	RankTolerance    float64 `koanf:"rank_tolerance"`

	// GradeAnchors maps accuracy percentiles to reliability grades.
	GradeAnchors []accuracy.Anchor `koanf:"grade_anchors"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	anchors := make([]accuracy.Anchor, len(accuracy.DefaultAnchors))
	copy(anchors, accuracy.DefaultAnchors)
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DataDir:            "data",
		DefaultFormat:      string(model.PPR),
		QueueSize:          64,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         1024,
		MaxProjectionLimit: 500,
		RecomputeRate:      2,
		RecomputeBurst:     4,
		BaselineDepth:      baseline.DefaultMaxDepth,
		HistoryDepth:       baseline.DefaultHistoryDepth,
		MinAccuracyWeeks:   accuracy.DefaultMinWeeks,
		MinOverrideGames:   projection.DefaultMinOverrideGames,
		RankTolerance:      accuracy.DefaultTolerance,
		GradeAnchors:       anchors,
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := model.ParseScoringFormat(c.DefaultFormat); err != nil {
		return fmt.Errorf("%w: default_format: %w", ErrInvalidConfig, err)
	}
	if c.RecomputeRate < 0 {
		return fmt.Errorf("%w: recompute_rate must not be negative", ErrInvalidConfig)
	}
	if len(c.GradeAnchors) > 0 {
		if _, err := accuracy.NewGradeCurve(c.GradeAnchors); err != nil {
			return fmt.Errorf("%w: grade_anchors: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
