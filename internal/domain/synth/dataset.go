package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/scoutai/scoutai/internal/domain/features"
	"github.com/scoutai/scoutai/internal/domain/model"
)

// Dataset is a set of encoded feature rows with their targets.
type Dataset struct {
	Rows    []features.Vector `json:"rows"`
	Targets []float64         `json:"targets"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Validate checks the dataset is non-empty, aligned and finite.
// Failures wrap model.ErrTrainingData.
func (d *Dataset) Validate() error {
	if d.Len() == 0 {
		return fmt.Errorf("%w: dataset is empty", model.ErrTrainingData)
	}
	if len(d.Rows) != len(d.Targets) {
		return fmt.Errorf("%w: %d rows but %d targets", model.ErrTrainingData, len(d.Rows), len(d.Targets))
	}
	for i, row := range d.Rows {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d feature %d is not finite", model.ErrTrainingData, i, j)
			}
		}
		if t := d.Targets[i]; math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: target %d is not finite", model.ErrTrainingData, i)
		}
	}
	return nil
}

// Matrix returns the rows as a [][]float64 copy.
func (d *Dataset) Matrix() [][]float64 {
	out := make([][]float64, len(d.Rows))
	for i := range d.Rows {
		out[i] = d.Rows[i].Slice()
	}
	return out
}

// Split shuffles indices with seed and holds out ceil(n*testFraction) rows for test.
// Both halves must be non-empty.
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset, err error) {
	if err = d.Validate(); err != nil {
		return nil, nil, err
	}
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("%w: test fraction must be in (0,1), got %v", model.ErrTrainingData, testFraction)
	}

	n := d.Len()
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split with test fraction %v", model.ErrTrainingData, n, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible split
	test = subset(d, perm[:nTest])
	train = subset(d, perm[nTest:])
	return train, test, nil
}

func subset(d *Dataset, idx []int) *Dataset {
	out := &Dataset{
		Rows:    make([]features.Vector, len(idx)),
		Targets: make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Rows[i] = d.Rows[j]
		out.Targets[i] = d.Targets[j]
	}
	return out
}
