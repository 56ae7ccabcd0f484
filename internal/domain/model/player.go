// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Defaults applied when a player field is absent.
const (
	DefaultADP             = 100.0
	DefaultProjectedPoints = 200.0
	DefaultByeWeek         = 8

	// DefaultPredictedPoints is reported on a recommendation whose player has no projection.
	DefaultPredictedPoints = 200.0

	MinByeWeek = 1
	MaxByeWeek = 18
)

// Position is a fantasy football roster position.
type Position string

// Supported positions.
const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	K   Position = "K"
	DST Position = "DST"
)

// Positions lists every position in feature order.
var Positions = [...]Position{QB, RB, WR, TE, K, DST} //nolint:gochecknoglobals // fixed feature layout

// targetCounts is the roster composition the drafter is filling toward.
var targetCounts = map[Position]int{ //nolint:gochecknoglobals // fixed lookup table
	QB: 1, RB: 3, WR: 3, TE: 1, K: 1, DST: 1,
}

// ParsePosition converts s (case-insensitive) into a Position.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown position %q", ErrFeatureComputation, s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported positions.
func (p Position) Valid() bool {
	_, ok := targetCounts[p]
	return ok
}

// Index returns the position's slot in the one-hot encoding, or -1.
func (p Position) Index() int {
	for i, q := range Positions {
		if q == p {
			return i
		}
	}
	return -1
}

// TargetCount returns how many players of p a complete roster holds.
func (p Position) TargetCount() int {
	return targetCounts[p]
}

// Player is a draft candidate. Name identifies the player within a single request.
type Player struct {
	Name            string   `json:"name"`
	Position        Position `json:"position"`
	Team            string   `json:"team"`
	ADP             *float64 `json:"adp,omitempty"`
	ProjectedPoints *float64 `json:"projected_points,omitempty"`
	ByeWeek         *int     `json:"bye_week,omitempty"`
}

// ADPOrDefault returns the player's ADP or DefaultADP.
func (p Player) ADPOrDefault() float64 {
	if p.ADP == nil {
		return DefaultADP
	}
	return *p.ADP
}

// PointsOrDefault returns the projected season points or DefaultProjectedPoints.
func (p Player) PointsOrDefault() float64 {
	if p.ProjectedPoints == nil {
		return DefaultProjectedPoints
	}
	return *p.ProjectedPoints
}

// ByeWeekOrDefault returns the bye week or DefaultByeWeek.
func (p Player) ByeWeekOrDefault() int {
	if p.ByeWeek == nil {
		return DefaultByeWeek
	}
	return *p.ByeWeek
}

// Float returns a pointer to v. Handy for building players in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
