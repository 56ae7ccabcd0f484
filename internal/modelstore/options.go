package modelstore

import (
	"time"

	"github.com/scoutai/scoutai/internal/domain/gbt"
	"github.com/scoutai/scoutai/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithVersion sets the version tag stamped on trained artifacts.
func WithVersion(version string) Option {
	return func(s *Store) {
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the training request values used when a request leaves them zero.
func WithDefaults(numSamples int, testFraction float64, seed int64) Option {
	return func(s *Store) {
		if numSamples > 0 {
			s.defaultSamples = numSamples
		}
		if testFraction > 0 && testFraction < 1 {
			s.defaultTestFraction = testFraction
		}
		s.defaultSeed = seed
	}
}

// WithBoosting overrides the boosting hyper-parameters.
func WithBoosting(opts ...gbt.Option) Option {
	return func(s *Store) {
		s.boosting = append(s.boosting, opts...)
	}
}

// WithClock replaces the time source used for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
