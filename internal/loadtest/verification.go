package loadtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/pkg/logger"
)

// Sentinel errors for verification failures.
var (
	ErrNoSuggestions = errors.New("no successful suggestions to verify")
	ErrInconsistent  = errors.New("inconsistent recommendation")
)

// verifyResults checks every successful suggestion against the board it was
// computed for and returns ErrNoSuggestions when nothing came back.
func verifyResults(ctx context.Context, config *Config, boards []Board, results []outcome, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying recommendations")

	verified := 0
	for i, res := range results {
		if !res.sent || res.err != nil {
			continue
		}
		verified++
		stats.Recommendations += len(res.resp.Recommendations)
		if err := verifyResponse(boards[i], res.resp); err != nil {
			stats.VerificationErrors++
			if config.Verbose || stats.VerificationErrors == 1 {
				log.Warn(ctx, "recommendation check failed", logger.Int("board", i), logger.Error(err))
			}
		}
	}
	if verified == 0 {
		return ErrNoSuggestions
	}

	displayTopPicks(ctx, boards, results, config.Verbose)

	log.Info(ctx, "verification completed",
		logger.Int("verified", verified),
		logger.Int("errors", stats.VerificationErrors))
	return nil
}

// verifyResponse checks ordering, bounds and provenance of one response.
func verifyResponse(board Board, resp SuggestResponse) error {
	pool := make(map[string]struct{}, len(board.AvailablePlayers))
	for _, p := range board.AvailablePlayers {
		pool[p.Name] = struct{}{}
	}

	if len(resp.Recommendations) > len(board.AvailablePlayers) {
		return fmt.Errorf("%w: %d recommendations from a pool of %d", ErrInconsistent, len(resp.Recommendations), len(board.AvailablePlayers))
	}

	seen := make(map[string]struct{}, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		name := rec.Player.Name
		if _, ok := pool[name]; !ok {
			return fmt.Errorf("%w: %q is not on the board", ErrInconsistent, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q recommended twice", ErrInconsistent, name)
		}
		seen[name] = struct{}{}

		if rec.ConfidenceScore < 0 || rec.ConfidenceScore > 1 {
			return fmt.Errorf("%w: %q confidence %v outside [0,1]", ErrInconsistent, name, rec.ConfidenceScore)
		}
		if rec.BoomProbability < 0 || rec.BoomProbability > 1 {
			return fmt.Errorf("%w: %q boom probability %v outside [0,1]", ErrInconsistent, name, rec.BoomProbability)
		}
		switch rec.RiskLevel {
		case model.RiskLow, model.RiskMedium, model.RiskHigh:
		default:
			return fmt.Errorf("%w: %q has risk level %q", ErrInconsistent, name, rec.RiskLevel)
		}
		if rec.Explanation == "" {
			return fmt.Errorf("%w: %q has no explanation", ErrInconsistent, name)
		}
		if i > 0 && rec.ConfidenceScore > resp.Recommendations[i-1].ConfidenceScore {
			return fmt.Errorf("%w: recommendation %d outranks %d", ErrInconsistent, i, i-1)
		}
	}

	for _, pos := range model.Positions {
		if _, ok := resp.RosterAnalysis.Needs[string(pos)]; !ok {
			return fmt.Errorf("%w: roster analysis is missing %s", ErrInconsistent, pos)
		}
	}
	return nil
}

// displayTopPicks logs the first recommendation of the first few boards.
func displayTopPicks(ctx context.Context, boards []Board, results []outcome, verbose bool) {
	limit := 5
	if verbose {
		limit = 20
	}
	for i, res := range results {
		if limit == 0 {
			return
		}
		if res.err != nil || len(res.resp.Recommendations) == 0 {
			continue
		}
		top := res.resp.Recommendations[0]
		logger.Get().Info(ctx, "top pick",
			logger.Int("board", i),
			logger.Int("round", boards[i].CurrentRound),
			logger.Int("pick", boards[i].CurrentPick),
			logger.String("player", top.Player.Name),
			logger.String("position", string(top.Player.Position)),
			logger.Float64("confidence", top.ConfidenceScore),
			logger.String("risk", string(top.RiskLevel)))
		limit--
	}
}
