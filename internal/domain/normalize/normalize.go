// Package normalize standardizes feature vectors to zero mean and unit variance.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"github.com/scoutai/scoutai/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Sentinel kinds for normalizer errors.
var (
	ErrEmpty       = errors.New("no rows to fit")
	ErrDimMismatch = errors.New("dimension mismatch")
	ErrNotFitted   = errors.New("normalizer not fitted")
)

// State holds the fitted per-dimension statistics.
type State struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// Dim returns the dimensionality the state was fitted on.
func (s State) Dim() int { return len(s.Means) }

// Fit computes the mean and population standard deviation of each column.
// Constant columns get a scale of 1 so they map to 0 instead of NaN.
func Fit(rows [][]float64) (State, error) {
	if len(rows) == 0 {
		return State{}, fmt.Errorf("%w: %w", model.ErrTrainingData, ErrEmpty)
	}
	dim := len(rows[0])
	for i, row := range rows {
		if len(row) != dim {
			return State{}, fmt.Errorf("%w: %w: row %d has %d columns, want %d", model.ErrTrainingData, ErrDimMismatch, i, len(row), dim)
		}
	}

	means := make([]float64, dim)
	scales := make([]float64, dim)
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		means[j], scales[j] = stat.PopMeanStdDev(col, nil)
		if scales[j] == 0 || math.IsNaN(scales[j]) {
			scales[j] = 1
		}
	}
	return State{Means: means, Scales: scales}, nil
}

// Apply returns x scaled with the fitted statistics. A vector whose length does
// not match the fitted layout is rejected.
func (s State) Apply(x []float64) ([]float64, error) {
	if s.Dim() == 0 || len(s.Scales) != s.Dim() {
		return nil, ErrNotFitted
	}
	if len(x) != s.Dim() {
		return nil, fmt.Errorf("%w: %w: got %d features, normalizer fitted on %d", model.ErrFeatureComputation, ErrDimMismatch, len(x), s.Dim())
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

// ApplyAll scales every row.
func (s State) ApplyAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Apply(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}
