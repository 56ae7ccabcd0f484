// Package config defines service configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/scoutai/scoutai/internal/modelstore"
)

// Errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath is where the model artifact is persisted.
	ModelPath string `koanf:"model_path"`

	// ModelVersion is stamped on newly trained artifacts.
	ModelVersion string `koanf:"model_version"`

	// TrainingSamples is the synthetic sample count when a request omits it.
	TrainingSamples int `koanf:"training_samples"`

	// TestFraction is the share of samples held out for evaluation.
	TestFraction float64 `koanf:"test_fraction"`

	// TrainingSeed seeds data generation and the train/test split.
	TrainingSeed int64 `koanf:"training_seed"`

	// TrainQueueSize bounds the number of waiting async training jobs.
	TrainQueueSize int `koanf:"train_queue_size"`

	// JobRetention caps how many finished jobs stay pollable.
	JobRetention int `koanf:"job_retention"`

	// TopK is the number of recommendations returned per request.
	TopK int `koanf:"top_k"`

	// TrainOnStart trains a model at startup when none could be loaded.
	TrainOnStart bool `koanf:"train_on_start"`

	// RetrainSchedule is a cron expression for periodic async retraining.
	// Empty disables it.
	RetrainSchedule string `koanf:"retrain_schedule"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		ModelPath:       "models/draft_model.json",
		ModelVersion:    modelstore.DefaultVersion,
		TrainingSamples: modelstore.DefaultNumSamples,
		TestFraction:    modelstore.DefaultTestFraction,
		TrainingSeed:    modelstore.DefaultSeed,
		TrainQueueSize:  8,
		JobRetention:    100,
		TopK:            3,
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.TrainingSamples < 2:
		return fmt.Errorf("%w: training_samples must be at least 2, got %d", ErrInvalidConfig, c.TrainingSamples)
	case !(c.TestFraction > 0 && c.TestFraction < 1):
		return fmt.Errorf("%w: test_fraction must be in (0,1), got %v", ErrInvalidConfig, c.TestFraction)
	case c.TrainQueueSize < 1:
		return fmt.Errorf("%w: train_queue_size must be positive, got %d", ErrInvalidConfig, c.TrainQueueSize)
	case c.JobRetention < 1:
		return fmt.Errorf("%w: job_retention must be positive, got %d", ErrInvalidConfig, c.JobRetention)
	case c.TopK < 1:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.RetrainSchedule != "" {
		if _, err := cron.ParseStandard(c.RetrainSchedule); err != nil {
			return fmt.Errorf("%w: retrain_schedule %q: %w", ErrInvalidConfig, c.RetrainSchedule, err)
		}
	}
	return nil
}
