// Package modelstore owns the live model artifact: it trains, persists,
// loads, deletes and scores against it.
//
// Scoring reads an immutable artifact through an atomic pointer and never
// blocks. Training runs one at a time and builds a complete artifact before a
// single pointer store installs it, so a caller never sees a model paired with
// another run's normalizer.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scoutai/scoutai/internal/domain/evaluation"
	"github.com/scoutai/scoutai/internal/domain/features"
	"github.com/scoutai/scoutai/internal/domain/gbt"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/domain/normalize"
	"github.com/scoutai/scoutai/internal/domain/scoring"
	"github.com/scoutai/scoutai/internal/domain/synth"
	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
)

// Defaults applied when a training request leaves fields zero.
const (
	DefaultVersion      = "1.0.0"
	DefaultNumSamples   = 20000
	DefaultTestFraction = 0.2
	DefaultSeed         = 42

	percent = 100.0
)

// Columns left out of the linear baseline: the last one-hot column and the
// two value features that are affine in adp and projected points.
var baselineExcluded = []string{"position_dst", "adp_value", "points_value"} //nolint:gochecknoglobals // fixed layout

// State is the lifecycle state of the store.
type State string

// Store states.
const (
	StateUnloaded State = "unloaded"
	StateTraining State = "training"
	StateLoaded   State = "loaded"
)

// Repository persists a single artifact.
type Repository interface {
	// Save replaces the persisted artifact atomically.
	Save(ctx context.Context, a *Artifact) error
	// Load returns the persisted artifact or ErrArtifactNotFound.
	Load(ctx context.Context) (*Artifact, error)
	// Delete removes the persisted artifact. A missing artifact is not an error.
	Delete(ctx context.Context) error
	// Location describes where the artifact lives.
	Location() string
}

// TrainRequest configures one training run. Zero fields take the store defaults.
type TrainRequest struct {
	Data         *synth.Dataset
	NumSamples   int
	TestFraction float64
	Seed         *int64
}

// TrainResult reports a finished training run.
type TrainResult struct {
	MSE             float64       `json:"mse"`
	MAE             float64       `json:"mae"`
	R2              float64       `json:"r2"`
	BaselineR2      *float64      `json:"baseline_r2,omitempty"`
	TrainingSamples int           `json:"training_samples"`
	TestSamples     int           `json:"test_samples"`
	Version         string        `json:"version"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
}

// Info describes the store. It is always available.
type Info struct {
	Version   string     `json:"version"`
	Loaded    bool       `json:"loaded"`
	State     State      `json:"state"`
	Features  int        `json:"features"`
	Location  string     `json:"location"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
	Metrics   *Metrics   `json:"metrics,omitempty"`
}

// Status is the short health view of the store.
type Status struct {
	Loaded   bool   `json:"model_loaded"`
	State    State  `json:"state"`
	Version  string `json:"model_version"`
	Features int    `json:"feature_count"`
}

// Importance is one ranked feature importance entry.
type Importance struct {
	Rank       int     `json:"rank"`
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Percentage float64 `json:"percentage"`
}

// Store owns the live artifact.
type Store struct {
	repo   Repository
	logger logger.Logger

	version             string
	defaultSamples      int
	defaultTestFraction float64
	defaultSeed         int64
	boosting            []gbt.Option
	now                 func() time.Time

	live     atomic.Pointer[Artifact]
	training atomic.Bool

	// trainMu serializes fits; swapMu orders persist+install against delete.
	trainMu sync.Mutex
	swapMu  sync.Mutex
}

// New creates an unloaded store persisting through repo.
func New(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:                repo,
		logger:              logger.Nop(),
		version:             DefaultVersion,
		defaultSamples:      DefaultNumSamples,
		defaultTestFraction: DefaultTestFraction,
		defaultSeed:         DefaultSeed,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the lifecycle state. A retrain reports Training while the
// previous artifact keeps serving.
func (s *Store) State() State {
	switch {
	case s.training.Load():
		return StateTraining
	case s.live.Load() != nil:
		return StateLoaded
	default:
		return StateUnloaded
	}
}

// Loaded reports whether an artifact is installed.
func (s *Store) Loaded() bool { return s.live.Load() != nil }

// Load installs the persisted artifact if one exists. A missing artifact
// leaves the store unloaded and is not an error.
func (s *Store) Load(ctx context.Context) error {
	a, err := s.repo.Load(ctx)
	if errors.Is(err, ErrArtifactNotFound) {
		s.logger.Info(ctx, "no persisted artifact", logger.String("location", s.repo.Location()))
		return nil
	}
	if err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		metrics.RecordErrorByComponent("modelstore", model.KindPersistence)
		return err
	}
	if err := a.Validate(); err != nil {
		metrics.RecordErrorByComponent("modelstore", model.KindPersistence)
		return err
	}

	s.swapMu.Lock()
	s.live.Store(a)
	s.swapMu.Unlock()

	metrics.UpdateModelLoaded(true)
	metrics.UpdateModelEvaluation(a.Metrics.MSE, a.Metrics.MAE, a.Metrics.R2, a.Metrics.TrainingSamples)
	s.logger.Info(ctx, "artifact loaded",
		logger.String("version", a.Version),
		logger.String("location", s.repo.Location()),
		logger.Any("trained_at", a.TrainedAt),
	)
	return nil
}

// Train fits a new artifact and installs it. A concurrent call waits for the
// running fit to finish.
func (s *Store) Train(ctx context.Context, req TrainRequest) (TrainResult, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	return s.train(ctx, req)
}

// TryTrain is Train but fails with model.ErrTrainingInProgress instead of waiting.
func (s *Store) TryTrain(ctx context.Context, req TrainRequest) (TrainResult, error) {
	if !s.trainMu.TryLock() {
		metrics.RecordTrainingRun(metrics.ResultRejected, 0)
		return TrainResult{}, model.ErrTrainingInProgress
	}
	defer s.trainMu.Unlock()
	return s.train(ctx, req)
}

func (s *Store) train(ctx context.Context, req TrainRequest) (TrainResult, error) {
	start := time.Now()
	s.training.Store(true)
	defer s.training.Store(false)

	res, err := s.fit(ctx, req, start)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordTrainingRun(metrics.ResultFailed, elapsed.Seconds())
		metrics.RecordErrorByComponent("modelstore", model.KindOf(err))
		s.logger.Error(ctx, "training failed", logger.Error(err), logger.Duration("elapsed", elapsed))
		return TrainResult{}, err
	}
	res.Duration = elapsed
	res.DurationSeconds = elapsed.Seconds()

	metrics.RecordTrainingRun(metrics.ResultSucceeded, elapsed.Seconds())
	metrics.UpdateModelEvaluation(res.MSE, res.MAE, res.R2, res.TrainingSamples)
	if res.BaselineR2 != nil {
		metrics.UpdateBaselineR2(*res.BaselineR2)
	}
	s.logger.Info(ctx, "training complete",
		logger.String("version", res.Version),
		logger.Int("train_rows", res.TrainingSamples),
		logger.Int("test_rows", res.TestSamples),
		logger.Float64("mse", res.MSE),
		logger.Float64("r2", res.R2),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (s *Store) fit(ctx context.Context, req TrainRequest, start time.Time) (TrainResult, error) {
	seed := s.defaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	fraction := req.TestFraction
	if fraction == 0 {
		fraction = s.defaultTestFraction
	}

	data := req.Data
	if data == nil {
		n := req.NumSamples
		if n == 0 {
			n = s.defaultSamples
		}
		generated, err := synth.Generate(n, seed)
		if err != nil {
			return TrainResult{}, err
		}
		data = generated
	}

	trainSet, testSet, err := data.Split(fraction, seed)
	if err != nil {
		return TrainResult{}, err
	}

	norm, err := normalize.Fit(trainSet.Matrix())
	if err != nil {
		return TrainResult{}, err
	}
	xTrain, err := norm.ApplyAll(trainSet.Matrix())
	if err != nil {
		return TrainResult{}, fmt.Errorf("%w: %w", model.ErrTrainingData, err)
	}
	xTest, err := norm.ApplyAll(testSet.Matrix())
	if err != nil {
		return TrainResult{}, fmt.Errorf("%w: %w", model.ErrTrainingData, err)
	}

	booster, err := gbt.Fit(xTrain, trainSet.Targets, s.boosting...)
	if err != nil {
		return TrainResult{}, fmt.Errorf("%w: %w", model.ErrTrainingData, err)
	}

	preds := make([]float64, len(xTest))
	for i, x := range xTest {
		if preds[i], err = booster.Predict(x); err != nil {
			return TrainResult{}, fmt.Errorf("%w: %w", model.ErrTrainingData, err)
		}
	}
	eval, err := evaluation.Evaluate(testSet.Targets, preds)
	if err != nil {
		return TrainResult{}, fmt.Errorf("%w: %w", model.ErrTrainingData, err)
	}
	baseline := s.baselineR2(ctx, xTrain, trainSet.Targets, xTest, testSet.Targets)

	a := &Artifact{
		Version:      s.version,
		FeatureNames: features.Names(),
		Normalizer:   norm,
		Model:        booster,
		TrainedAt:    s.now().UTC(),
		Metrics: Metrics{
			Metrics:         eval,
			BaselineR2:      baseline,
			TrainingSamples: trainSet.Len(),
			TestSamples:     testSet.Len(),
		},
	}
	s.logger.Debug(ctx, "model fitted", logger.Duration("elapsed", time.Since(start)))

	if err := s.install(ctx, a); err != nil {
		return TrainResult{}, err
	}
	return TrainResult{
		MSE:             eval.MSE,
		MAE:             eval.MAE,
		R2:              eval.R2,
		BaselineR2:      baseline,
		TrainingSamples: trainSet.Len(),
		TestSamples:     testSet.Len(),
		Version:         a.Version,
	}, nil
}

// baselineR2 fits the linear reference model. A failed fit is logged and
// reported as nil.
func (s *Store) baselineR2(ctx context.Context, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) *float64 {
	names := features.Names()
	cols := make([]int, 0, len(names))
	for i, n := range names {
		if !slices.Contains(baselineExcluded, n) {
			cols = append(cols, i)
		}
	}
	b, err := evaluation.FitBaseline(xTrain, yTrain, cols, names)
	if err != nil {
		s.logger.Warn(ctx, "linear baseline unavailable", logger.Error(err))
		return nil
	}
	r2, err := b.R2(xTest, yTest)
	if err != nil || math.IsNaN(r2) || math.IsInf(r2, 0) {
		s.logger.Warn(ctx, "linear baseline unavailable", logger.Error(err))
		return nil
	}
	return &r2
}

// install persists a and then makes it live. The live artifact is untouched
// when persisting fails.
func (s *Store) install(ctx context.Context, a *Artifact) error {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if err := s.repo.Save(ctx, a); err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		return err
	}
	s.live.Store(a)
	metrics.UpdateModelLoaded(true)
	return nil
}

// Delete removes the persisted artifact and unloads the store. Deleting when
// nothing exists succeeds.
func (s *Store) Delete(ctx context.Context) error {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		metrics.RecordErrorByComponent("modelstore", model.KindPersistence)
		return err
	}
	s.live.Store(nil)
	metrics.UpdateModelLoaded(false)
	s.logger.Info(ctx, "artifact deleted", logger.String("location", s.repo.Location()))
	return nil
}

// Info describes the store and the live artifact, if any.
func (s *Store) Info() Info {
	info := Info{
		Version:  s.version,
		State:    s.State(),
		Features: features.Dim,
		Location: s.repo.Location(),
	}
	if a := s.live.Load(); a != nil {
		trainedAt := a.TrainedAt
		m := a.Metrics
		info.Version = a.Version
		info.Loaded = true
		info.TrainedAt = &trainedAt
		info.Metrics = &m
	}
	return info
}

// Status reports whether a model is loaded and the layout it expects.
func (s *Store) Status() Status {
	info := s.Info()
	return Status{Loaded: info.Loaded, State: info.State, Version: info.Version, Features: info.Features}
}

// Snapshot returns a scorer bound to the artifact live right now.
func (s *Store) Snapshot() (scoring.Scorer, error) {
	a := s.live.Load()
	if a == nil {
		return nil, model.ErrModelNotLoaded
	}
	return snapshot{a: a}, nil
}

// PredictScore scores one candidate against the live artifact.
func (s *Store) PredictScore(ctx context.Context, player model.Player, roster model.RosterSnapshot, draft model.DraftContext) (float64, error) {
	sc, err := s.Snapshot()
	if err != nil {
		return 0, err
	}
	return sc.Score(ctx, player, roster, draft)
}

// FeatureImportance returns every feature ranked by importance.
func (s *Store) FeatureImportance() ([]Importance, error) {
	a := s.live.Load()
	if a == nil {
		return nil, model.ErrModelNotLoaded
	}
	imp := a.Model.FeatureImportance()
	out := make([]Importance, len(imp))
	for i, v := range imp {
		name := fmt.Sprintf("feature_%d", i)
		if i < len(a.FeatureNames) {
			name = a.FeatureNames[i]
		}
		out[i] = Importance{Feature: name, Importance: v, Percentage: v * percent}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// TopFeatures returns the n most important features.
func (s *Store) TopFeatures(n int) ([]Importance, error) {
	all, err := s.FeatureImportance()
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// snapshot scores against one fixed artifact.
type snapshot struct {
	a *Artifact
}

func (sn snapshot) Score(ctx context.Context, player model.Player, roster model.RosterSnapshot, draft model.DraftContext) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v, err := features.Encode(player, roster, draft)
	if err != nil {
		return 0, err
	}
	x, err := sn.a.Normalizer.Apply(v.Slice())
	if err != nil {
		return 0, err
	}
	raw, err := sn.a.Model.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrCandidateScoring, err)
	}
	if math.IsNaN(raw) {
		return 0, fmt.Errorf("%w: model produced NaN", model.ErrCandidateScoring)
	}
	return math.Max(0, math.Min(1, raw)), nil
}
