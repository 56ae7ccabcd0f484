// Package evaluation scores a fitted model against held-out rows.
package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when predictions and targets differ in length.
var ErrLengthMismatch = errors.New("prediction and target lengths differ")

// Metrics are the held-out regression metrics reported after a training run.
type Metrics struct {
	MSE float64 `json:"mse"`
	MAE float64 `json:"mae"`
	R2  float64 `json:"r2"`
}

// Evaluate compares predictions against targets. R2 is 1 - SSres/SStot; a
// constant target reports 1 for an exact fit and 0 otherwise.
func Evaluate(targets, predictions []float64) (Metrics, error) {
	if len(targets) == 0 {
		return Metrics{}, fmt.Errorf("%w: no rows to evaluate", ErrLengthMismatch)
	}
	if len(targets) != len(predictions) {
		return Metrics{}, fmt.Errorf("%w: %d targets, %d predictions", ErrLengthMismatch, len(targets), len(predictions))
	}

	n := float64(len(targets))
	mean := stat.Mean(targets, nil)

	var ssRes, ssTot, absSum float64
	for i, y := range targets {
		d := y - predictions[i]
		ssRes += d * d
		absSum += math.Abs(d)
		t := y - mean
		ssTot += t * t
	}

	m := Metrics{MSE: ssRes / n, MAE: absSum / n}
	switch {
	case ssTot > 0:
		m.R2 = stat.RSquaredFrom(predictions, targets, nil)
	case ssRes == 0:
		m.R2 = 1
	}
	return m, nil
}
