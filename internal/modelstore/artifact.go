package modelstore

import (
	"fmt"
	"slices"
	"time"

	"github.com/scoutai/scoutai/internal/domain/evaluation"
	"github.com/scoutai/scoutai/internal/domain/features"
	"github.com/scoutai/scoutai/internal/domain/gbt"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/domain/normalize"
)

// Artifact is the persisted bundle of a trained model, its normalizer and
// version metadata. An installed artifact is never mutated.
type Artifact struct {
	Version      string          `json:"version"`
	FeatureNames []string        `json:"feature_names"`
	Normalizer   normalize.State `json:"normalizer"`
	Model        *gbt.Model      `json:"model"`
	TrainedAt    time.Time       `json:"trained_at"`
	Metrics      Metrics         `json:"metrics"`
}

// Metrics summarizes the training run that produced an artifact.
type Metrics struct {
	evaluation.Metrics
	BaselineR2      *float64 `json:"baseline_r2,omitempty"`
	TrainingSamples int      `json:"training_samples"`
	TestSamples     int      `json:"test_samples"`
}

// Validate checks that the artifact matches the current feature layout.
// Failures wrap model.ErrPersistence and ErrLayoutMismatch.
func (a *Artifact) Validate() error {
	switch {
	case a == nil || a.Model == nil:
		return fmt.Errorf("%w: %w: artifact has no model", model.ErrPersistence, ErrLayoutMismatch)
	case !slices.Equal(a.FeatureNames, features.Names()):
		return fmt.Errorf("%w: %w: feature names %v", model.ErrPersistence, ErrLayoutMismatch, a.FeatureNames)
	case a.Normalizer.Dim() != features.Dim || len(a.Normalizer.Scales) != features.Dim:
		return fmt.Errorf("%w: %w: normalizer has %d dims, want %d", model.ErrPersistence, ErrLayoutMismatch, a.Normalizer.Dim(), features.Dim)
	case a.Model.NumFeatures != features.Dim:
		return fmt.Errorf("%w: %w: model has %d features, want %d", model.ErrPersistence, ErrLayoutMismatch, a.Model.NumFeatures, features.Dim)
	}
	if err := a.Model.Validate(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	return nil
}
