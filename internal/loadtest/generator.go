package loadtest

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/pkg/logger"
)

// Board shape ranges. Upper bounds are inclusive.
const (
	maxRound       = 15
	maxPick        = 12
	missingPercent = 10
)

// tier is a band of draft value a generated player is drawn from.
type tier struct {
	minADP, adpRange       float64
	minPoints, pointsRange float64
}

// Player tiers from first-round talent to late fliers.
var tiers = [...]tier{ //nolint:gochecknoglobals // fixed sampling table
	{minADP: 1, adpRange: 23, minPoints: 280, pointsRange: 100},
	{minADP: 24, adpRange: 66, minPoints: 190, pointsRange: 100},
	{minADP: 90, adpRange: 80, minPoints: 120, pointsRange: 80},
	{minADP: 170, adpRange: 50, minPoints: 50, pointsRange: 90},
}

// rosterCaps bounds how many players of each position a generated roster holds.
var rosterCaps = map[model.Position]int{ //nolint:gochecknoglobals // fixed sampling table
	model.QB:  2,
	model.RB:  4,
	model.WR:  4,
	model.TE:  2,
	model.K:   1,
	model.DST: 1,
}

// generateBoards creates config.Drafts boards. Board i is drawn from its own
// generator seeded with config.Seed+i so the output does not depend on worker scheduling.
func generateBoards(ctx context.Context, config *Config, stats *Stats) ([]Board, error) {
	logger.Get().Info(ctx, "generating draft boards",
		logger.Int("drafts", config.Drafts),
		logger.Int("poolSize", config.PoolSize))

	if config.Drafts <= 0 || config.PoolSize <= 0 {
		return nil, fmt.Errorf("drafts and pool size must be positive, got %d and %d", config.Drafts, config.PoolSize)
	}

	boards := make([]Board, config.Drafts)

	type boardResult struct {
		index int
		board Board
		err   error
	}

	resultChan := make(chan boardResult, config.Drafts)

	workerCount := min(max(config.Workers, 1), config.Drafts)
	boardsPerWorker := config.Drafts / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * boardsPerWorker
		end := start + boardsPerWorker
		if worker == workerCount-1 {
			end = config.Drafts
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- boardResult{index: i, err: ctx.Err()}
					return
				default:
					rng := rand.New(rand.NewSource(config.Seed + int64(i))) //nolint:gosec // reproducible boards
					board, err := generateBoard(rng, config.PoolSize)
					resultChan <- boardResult{index: i, board: board, err: err}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.Drafts; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during board generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate board %d: %w", result.index, result.err)
			}
			boards[result.index] = result.board
		}
	}

	stats.BoardsGenerated = len(boards)
	logger.Get().Info(ctx, "generated draft boards", logger.Int("count", len(boards)))

	return boards, nil
}

// generateBoard draws one draft situation with poolSize available players.
func generateBoard(rng *rand.Rand, poolSize int) (Board, error) {
	board := Board{
		CurrentRound:     1 + rng.Intn(maxRound),
		CurrentPick:      1 + rng.Intn(maxPick),
		UserRoster:       make(map[string][]string, len(model.Positions)),
		AvailablePlayers: make([]model.Player, 0, poolSize),
	}

	for _, pos := range model.Positions {
		n := rng.Intn(rosterCaps[pos] + 1)
		if n == 0 {
			continue
		}
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("rostered-%s-%d", pos, i+1)
		}
		board.UserRoster[string(pos)] = names
	}

	for i := 0; i < poolSize; i++ {
		p, err := generatePlayer(rng)
		if err != nil {
			return Board{}, err
		}
		board.AvailablePlayers = append(board.AvailablePlayers, p)
	}
	return board, nil
}

// generatePlayer draws a player from a random tier. A few players leave
// optional fields blank so the service's defaults get exercised.
func generatePlayer(rng *rand.Rand) (model.Player, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return model.Player{}, fmt.Errorf("player id: %w", err)
	}
	pos := model.Positions[rng.Intn(len(model.Positions))]
	t := tiers[rng.Intn(len(tiers))]

	p := model.Player{
		Name:     fmt.Sprintf("%s-%s", pos, id.String()[:8]),
		Position: pos,
		Team:     fmt.Sprintf("T%02d", 1+rng.Intn(32)),
	}
	if rng.Intn(100) >= missingPercent {
		p.ADP = model.Float(t.minADP + rng.Float64()*t.adpRange)
	}
	if rng.Intn(100) >= missingPercent {
		p.ProjectedPoints = model.Float(t.minPoints + rng.Float64()*t.pointsRange)
	}
	if rng.Intn(100) >= missingPercent {
		p.ByeWeek = model.Int(model.MinByeWeek + rng.Intn(model.MaxByeWeek-model.MinByeWeek+1))
	}
	return p, nil
}
