// Package scoring ranks draft candidates against a trained model snapshot.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/scoutai/scoutai/internal/domain/explain"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
)

// Recommendation shaping constants.
const (
	DefaultTopK = 3

	boomFactor   = 0.4
	boomCap      = 0.3
	vorPerPoint  = 50.0
	millisPerSec = 1000.0
)

// Scorer computes a confidence score in [0,1] for one candidate.
type Scorer interface {
	// Score encodes and scores a candidate, honoring ctx for cancellation.
	Score(ctx context.Context, player model.Player, roster model.RosterSnapshot, draft model.DraftContext) (float64, error)
}

// Snapshotter hands out a Scorer bound to the artifact live at call time.
// It fails with model.ErrModelNotLoaded when nothing is installed.
type Snapshotter interface {
	Snapshot() (Scorer, error)
}

// Skipped describes a candidate dropped because it could not be scored.
type Skipped struct {
	Index  int    `json:"index"`
	Player string `json:"player"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Result is the outcome of one recommend call.
type Result struct {
	Recommendations []model.Recommendation `json:"recommendations"`
	Skipped         []Skipped              `json:"skipped,omitempty"`
	Scored          int                    `json:"scored"`
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithTopK sets how many recommendations are retained.
func WithTopK(k int) Option {
	return func(r *Ranker) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithLogger sets a custom logger for the ranker.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// Ranker scores a candidate pool and returns the best picks.
type Ranker struct {
	source Snapshotter
	topK   int
	logger logger.Logger
}

// NewRanker creates a ranker reading scores from source.
func NewRanker(source Snapshotter, opts ...Option) *Ranker {
	r := &Ranker{
		source: source,
		topK:   DefaultTopK,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type scored struct {
	player model.Player
	score  float64
}

// Recommend scores every candidate against one model snapshot, skips those
// that fail, and returns the top picks by score. Ties keep input order.
func (r *Ranker) Recommend(ctx context.Context, draft model.DraftContext, roster model.RosterSnapshot, candidates []model.Player) (Result, error) {
	start := time.Now()

	scorer, err := r.source.Snapshot()
	if err != nil {
		return Result{}, err
	}
	if err := draft.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Recommendations: []model.Recommendation{}}
	pool := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("recommend cancelled: %w", err)
		}
		s, err := scorer.Score(ctx, c, roster, draft)
		if err != nil {
			skip := Skipped{Index: i, Player: c.Name, Kind: model.KindOf(err), Reason: err.Error()}
			res.Skipped = append(res.Skipped, skip)
			metrics.RecordErrorByComponent("scoring", skip.Kind)
			r.logger.Warn(ctx, "skipping candidate",
				logger.Int("index", i),
				logger.String("player", c.Name),
				logger.String("kind", skip.Kind),
				logger.Error(fmt.Errorf("%w: %w", model.ErrCandidateScoring, err)),
			)
			continue
		}
		pool = append(pool, scored{player: c, score: s})
	}
	res.Scored = len(pool)

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	if len(pool) > r.topK {
		pool = pool[:r.topK]
	}
	for _, p := range pool {
		res.Recommendations = append(res.Recommendations, Annotate(p.player, p.score, roster, draft.Round))
	}

	metrics.RecordRecommendation(res.Scored, len(res.Skipped), float64(time.Since(start).Microseconds())/millisPerSec)
	r.logger.Debug(ctx, "recommend complete",
		logger.Int("candidates", len(candidates)),
		logger.Int("scored", res.Scored),
		logger.Int("skipped", len(res.Skipped)),
		logger.Int("returned", len(res.Recommendations)),
	)
	return res, nil
}

// Annotate builds the recommendation fields derived from a score.
func Annotate(player model.Player, score float64, roster model.RosterSnapshot, round int) model.Recommendation {
	return model.Recommendation{
		Player:               player,
		ConfidenceScore:      score,
		PredictedPoints:      predictedPoints(player),
		BoomProbability:      math.Min(boomCap, boomFactor*score),
		ValueOverReplacement: vorPerPoint * score,
		Explanation:          explain.Explanation(player, roster, round),
		RiskLevel:            explain.Risk(player, score),
	}
}

func predictedPoints(p model.Player) float64 {
	if p.ProjectedPoints != nil {
		return *p.ProjectedPoints
	}
	return model.DefaultPredictedPoints
}
