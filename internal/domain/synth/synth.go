// Package synth generates labeled training rows for pipeline validation.
//
// The target is a noisy heuristic over the encoded features, not a model of
// real player outcomes. A fixed seed reproduces the dataset exactly.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/scoutai/scoutai/internal/domain/features"
	"github.com/scoutai/scoutai/internal/domain/model"
)

// Sampling bounds. Integer upper bounds are exclusive.
const (
	minADP    = 1.0
	maxADP    = 200.0
	minPoints = 50.0
	maxPoints = 400.0
	maxRound  = 16
	maxPick   = 13

	needWeight   = 0.4
	adpWeight    = 0.3
	pointsWeight = 0.3
	noiseStdDev  = 0.1
)

// rosterBounds caps each sampled roster count (exclusive).
var rosterBounds = map[model.Position]int{ //nolint:gochecknoglobals // fixed sampling table
	model.QB:  3,
	model.RB:  6,
	model.WR:  6,
	model.TE:  3,
	model.K:   2,
	model.DST: 2,
}

// Generate returns n labeled rows drawn from a generator seeded with seed.
func Generate(n int, seed int64) (*Dataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count must be positive, got %d", model.ErrTrainingData, n)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data
	ds := &Dataset{
		Rows:    make([]features.Vector, 0, n),
		Targets: make([]float64, 0, n),
	}

	for i := 0; i < n; i++ {
		player, roster, draft := sample(rng)
		v, err := features.Encode(player, roster, draft)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		target := needWeight*v.NeedScore() +
			adpWeight*v.ADPValue() +
			pointsWeight*v.PointsValue() +
			rng.NormFloat64()*noiseStdDev

		ds.Rows = append(ds.Rows, v)
		ds.Targets = append(ds.Targets, clamp01(target))
	}
	return ds, nil
}

// sample draws one (player, roster, draft) triple. The draw order is part of
// the reproducibility contract; do not reorder.
func sample(rng *rand.Rand) (model.Player, model.RosterSnapshot, model.DraftContext) {
	pos := model.Positions[rng.Intn(len(model.Positions))]
	adp := minADP + rng.Float64()*(maxADP-minADP)
	points := minPoints + rng.Float64()*(maxPoints-minPoints)
	bye := model.MinByeWeek + rng.Intn(model.MaxByeWeek-model.MinByeWeek+1)

	roster := make(model.RosterSnapshot, len(model.Positions))
	for _, p := range model.Positions {
		roster[p] = rng.Intn(rosterBounds[p])
	}

	draft := model.DraftContext{
		Round: 1 + rng.Intn(maxRound-1),
		Pick:  1 + rng.Intn(maxPick-1),
	}

	player := model.Player{
		Name:            fmt.Sprintf("synthetic-%s", pos),
		Position:        pos,
		ADP:             &adp,
		ProjectedPoints: &points,
		ByeWeek:         &bye,
	}
	return player, roster, draft
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
