package model

import "fmt"

// RosterSnapshot counts already-rostered players per position.
// Only counts matter for scoring; identities are irrelevant.
type RosterSnapshot map[Position]int

// Count returns the number of rostered players at p (0 if absent).
func (r RosterSnapshot) Count(p Position) int {
	if r == nil {
		return 0
	}
	return r[p]
}

// Need returns how many more players at p are needed to reach the target composition.
func (r RosterSnapshot) Need(p Position) int {
	need := p.TargetCount() - r.Count(p)
	if need < 0 {
		return 0
	}
	return need
}

// Validate rejects negative counts and unknown positions.
func (r RosterSnapshot) Validate() error {
	for p, n := range r {
		if !p.Valid() {
			return fmt.Errorf("%w: roster has unknown position %q", ErrFeatureComputation, p)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative roster count %d for %s", ErrFeatureComputation, n, p)
		}
	}
	return nil
}

// RosterFromNames builds a snapshot from a position -> player names mapping,
// the shape draft clients send.
func RosterFromNames(names map[string][]string) (RosterSnapshot, error) {
	r := make(RosterSnapshot, len(Positions))
	for key, players := range names {
		p, err := ParsePosition(key)
		if err != nil {
			return nil, err
		}
		r[p] += len(players)
	}
	return r, nil
}

// DraftContext is the current position in the draft. No upper bound is enforced.
type DraftContext struct {
	Round int `json:"current_round"`
	Pick  int `json:"current_pick"`
}

// Validate requires round and pick to be at least 1.
func (d DraftContext) Validate() error {
	if d.Round < 1 {
		return fmt.Errorf("%w: current_round must be >= 1, got %d", ErrFeatureComputation, d.Round)
	}
	if d.Pick < 1 {
		return fmt.Errorf("%w: current_pick must be >= 1, got %d", ErrFeatureComputation, d.Pick)
	}
	return nil
}

// RiskLevel is a coarse risk tier attached to a recommendation.
type RiskLevel string

// Risk tiers.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is a scored, explained pick suggestion.
type Recommendation struct {
	Player               Player    `json:"player"`
	ConfidenceScore      float64   `json:"confidence_score"`
	PredictedPoints      float64   `json:"predicted_points"`
	BoomProbability      float64   `json:"boom_probability"`
	ValueOverReplacement float64   `json:"value_over_replacement"`
	Explanation          string    `json:"explanation"`
	RiskLevel            RiskLevel `json:"risk_level"`
}
