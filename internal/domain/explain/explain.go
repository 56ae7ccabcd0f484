// Package explain annotates a scored candidate with a short rationale and a
// coarse risk level.
package explain

import (
	"fmt"
	"strings"

	"github.com/scoutai/scoutai/internal/domain/model"
)

// Fallback is used when no clause applies.
const Fallback = "Solid all-around value"

const (
	eliteADP       = 20.0
	goodADP        = 50.0
	highPoints     = 250.0
	earlyRoundMax  = 3
	lateRoundMin   = 10
	riskyADP       = 100.0
	lowPoints      = 150.0
	lowConfidence  = 0.3
	separator      = ". "
	mediumRiskFrom = 1
	highRiskFrom   = 2
)

// Explanation builds the rationale for drafting player in round given roster.
// Missing adp and projection fall back to the model defaults.
func Explanation(player model.Player, roster model.RosterSnapshot, round int) string {
	clauses := make([]string, 0, 4)

	if need := roster.Need(player.Position); need > 0 {
		clauses = append(clauses, fmt.Sprintf("Need %d more %s", need, player.Position))
	} else {
		clauses = append(clauses, fmt.Sprintf("Good %s depth", player.Position))
	}

	switch adp := player.ADPOrDefault(); {
	case adp < eliteADP:
		clauses = append(clauses, "Elite ADP value")
	case adp < goodADP:
		clauses = append(clauses, "Good ADP value")
	}

	if player.PointsOrDefault() > highPoints {
		clauses = append(clauses, "High projected points")
	}

	switch player.Position {
	case model.RB, model.WR:
		if round <= earlyRoundMax {
			clauses = append(clauses, "Early round priority")
		}
	case model.K, model.DST:
		if round >= lateRoundMin {
			clauses = append(clauses, "Late round target")
		}
	}

	if len(clauses) == 0 {
		return Fallback
	}
	return strings.Join(clauses, separator)
}

// Risk counts risk factors: late consensus adp, a low projection and a low
// confidence score.
func Risk(player model.Player, score float64) model.RiskLevel {
	factors := 0
	if player.ADPOrDefault() > riskyADP {
		factors++
	}
	if player.PointsOrDefault() < lowPoints {
		factors++
	}
	if score < lowConfidence {
		factors++
	}

	switch {
	case factors >= highRiskFrom:
		return model.RiskHigh
	case factors >= mediumRiskFrom:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
