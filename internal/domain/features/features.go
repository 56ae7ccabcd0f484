// Package features maps a (player, roster, draft context) triple onto the
// fixed-length vector the regression model is trained and queried on.
//
// Encode is pure: identical inputs always produce identical vectors. Training
// data synthesis and inference both go through it, which keeps the two sides
// of the model on the same layout.
package features

import (
	"fmt"
	"math"

	"github.com/scoutai/scoutai/internal/domain/model"
)

// Dim is the number of features in a Vector.
const Dim = 20

// Layout offsets.
const (
	offsetPosition = 0
	offsetADP      = 6
	offsetPoints   = 7
	offsetBye      = 8
	offsetRoster   = 9
	offsetRound    = 15
	offsetPick     = 16
	offsetNeed     = 17
	offsetADPValue = 18
	offsetPtsValue = 19
)

// Scaling constants for the derived value features.
const (
	adpHorizon    = 200.0
	pointsCeiling = 400.0
)

var names = [Dim]string{ //nolint:gochecknoglobals // fixed feature layout
	"position_qb", "position_rb", "position_wr", "position_te", "position_k", "position_dst",
	"adp", "projected_points", "bye_week",
	"roster_qb_count", "roster_rb_count", "roster_wr_count", "roster_te_count", "roster_k_count", "roster_dst_count",
	"current_round", "current_pick",
	"position_need_score", "adp_value", "points_value",
}

// Vector is an encoded feature row.
type Vector [Dim]float64

// Slice returns the vector as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dim)
	copy(out, v[:])
	return out
}

// Names returns the feature names in vector order.
func Names() []string {
	out := make([]string, Dim)
	copy(out, names[:])
	return out
}

// PositionNeed is the unfilled share of the target count at pos, in [0,1].
func PositionNeed(pos model.Position, rosterCount int) float64 {
	target := pos.TargetCount()
	if target == 0 {
		return 0
	}
	return math.Max(0, float64(target-rosterCount)/float64(target))
}

// ADPValue rewards earlier consensus picks; 0 at adp >= 200.
func ADPValue(adp float64) float64 {
	return math.Max(0, (adpHorizon-adp)/adpHorizon)
}

// PointsValue scales projected points into [.., 1], clamped at 1.
func PointsValue(points float64) float64 {
	return math.Min(1, points/pointsCeiling)
}

// Encode builds the feature vector for player given the roster and draft position.
// All failures wrap model.ErrFeatureComputation.
func Encode(player model.Player, roster model.RosterSnapshot, draft model.DraftContext) (Vector, error) {
	var v Vector

	idx := player.Position.Index()
	if idx < 0 {
		return v, fmt.Errorf("%w: player %q has unknown position %q", model.ErrFeatureComputation, player.Name, player.Position)
	}
	if err := draft.Validate(); err != nil {
		return v, err
	}
	if err := roster.Validate(); err != nil {
		return v, err
	}

	adp := player.ADPOrDefault()
	points := player.PointsOrDefault()
	bye := player.ByeWeekOrDefault()
	if !finite(adp) {
		return v, fmt.Errorf("%w: player %q has non-finite adp", model.ErrFeatureComputation, player.Name)
	}
	if !finite(points) {
		return v, fmt.Errorf("%w: player %q has non-finite projected points", model.ErrFeatureComputation, player.Name)
	}
	if bye < model.MinByeWeek || bye > model.MaxByeWeek {
		return v, fmt.Errorf("%w: player %q has bye week %d outside %d-%d",
			model.ErrFeatureComputation, player.Name, bye, model.MinByeWeek, model.MaxByeWeek)
	}

	v[offsetPosition+idx] = 1
	v[offsetADP] = adp
	v[offsetPoints] = points
	v[offsetBye] = float64(bye)
	for i, p := range model.Positions {
		v[offsetRoster+i] = float64(roster.Count(p))
	}
	v[offsetRound] = float64(draft.Round)
	v[offsetPick] = float64(draft.Pick)
	v[offsetNeed] = PositionNeed(player.Position, roster.Count(player.Position))
	v[offsetADPValue] = ADPValue(adp)
	v[offsetPtsValue] = PointsValue(points)

	return v, nil
}

// NeedScore reads position_need_score from an encoded vector.
func (v Vector) NeedScore() float64 { return v[offsetNeed] }

// ADPValue reads adp_value from an encoded vector.
func (v Vector) ADPValue() float64 { return v[offsetADPValue] }

// PointsValue reads points_value from an encoded vector.
func (v Vector) PointsValue() float64 { return v[offsetPtsValue] }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
