package evaluation

import (
	"errors"
	"fmt"
	"math"

	"github.com/sajari/regression"
)

// ErrBaseline is returned when the linear baseline cannot be fitted.
var ErrBaseline = errors.New("linear baseline failed")

// Baseline is an ordinary least squares fit over a subset of columns.
type Baseline struct {
	columns []int
	coeffs  []float64
}

// FitBaseline fits y ~ rows[:, columns] with an intercept. Columns that are
// exact linear combinations of others must be left out by the caller.
func FitBaseline(rows [][]float64, targets []float64, columns []int, names []string) (*Baseline, error) {
	if len(rows) == 0 || len(rows) != len(targets) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrBaseline, len(rows), len(targets))
	}
	if len(rows) <= len(columns) {
		return nil, fmt.Errorf("%w: %d rows cannot fit %d columns", ErrBaseline, len(rows), len(columns))
	}

	var r regression.Regression
	r.SetObserved("score")
	for i, c := range columns {
		name := fmt.Sprintf("x%d", c)
		if c < len(names) {
			name = names[c]
		}
		r.SetVar(i, name)
	}
	x := make([]float64, len(columns))
	for i, row := range rows {
		for j, c := range columns {
			if c >= len(row) {
				return nil, fmt.Errorf("%w: column %d out of range for row %d", ErrBaseline, c, i)
			}
			x[j] = row[c]
		}
		vars := make([]float64, len(x))
		copy(vars, x)
		r.Train(regression.DataPoint(targets[i], vars))
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseline, err)
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != len(columns)+1 {
		return nil, fmt.Errorf("%w: got %d coefficients, want %d", ErrBaseline, len(coeffs), len(columns)+1)
	}
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrBaseline)
		}
	}
	return &Baseline{columns: columns, coeffs: coeffs}, nil
}

// Predict returns the linear estimate for one full-width row.
func (b *Baseline) Predict(row []float64) float64 {
	out := b.coeffs[0]
	for j, c := range b.columns {
		out += b.coeffs[j+1] * row[c]
	}
	return out
}

// R2 evaluates the baseline on held-out rows.
func (b *Baseline) R2(rows [][]float64, targets []float64) (float64, error) {
	preds := make([]float64, len(rows))
	for i, row := range rows {
		preds[i] = b.Predict(row)
	}
	m, err := Evaluate(targets, preds)
	if err != nil {
		return 0, err
	}
	return m.R2, nil
}
