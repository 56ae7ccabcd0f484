package modelstore_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/scoutai/scoutai/internal/adapters/repository"
	"github.com/scoutai/scoutai/internal/domain/gbt"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/domain/scoring"
	"github.com/scoutai/scoutai/internal/domain/synth"
	"github.com/scoutai/scoutai/internal/modelstore"
	. "github.com/smartystreets/goconvey/convey"
)

func int64p(v int64) *int64 { return &v }

func quickStore(repo modelstore.Repository) *modelstore.Store {
	return modelstore.New(repo,
		modelstore.WithDefaults(2000, 0.2, 42),
		modelstore.WithBoosting(gbt.WithNumTrees(30)),
	)
}

// gatedRepo blocks Save until release is closed and can be told to fail.
type gatedRepo struct {
	*repository.MemoryStore
	mu       sync.Mutex
	entered  chan struct{}
	release  chan struct{}
	failSave bool
}

func (g *gatedRepo) Save(ctx context.Context, a *modelstore.Artifact) error {
	g.mu.Lock()
	entered, release, fail := g.entered, g.release, g.failSave
	g.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	if fail {
		return errors.New("disk full")
	}
	return g.MemoryStore.Save(ctx, a)
}

func randomInput(rng *rand.Rand) (model.Player, model.RosterSnapshot, model.DraftContext) {
	pos := model.Positions[rng.Intn(len(model.Positions))]
	p := model.Player{
		Name:            "p",
		Position:        pos,
		ADP:             model.Float(rng.Float64() * 400),
		ProjectedPoints: model.Float(rng.Float64() * 600),
		ByeWeek:         model.Int(1 + rng.Intn(18)),
	}
	roster := model.RosterSnapshot{}
	for _, q := range model.Positions {
		roster[q] = rng.Intn(8)
	}
	return p, roster, model.DraftContext{Round: 1 + rng.Intn(20), Pick: 1 + rng.Intn(14)}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new store", t, func() {
		store := quickStore(repository.NewMemoryStore())

		Convey("Then it starts unloaded and still reports info", func() {
			So(store.State(), ShouldEqual, modelstore.StateUnloaded)
			info := store.Info()
			So(info.Loaded, ShouldBeFalse)
			So(info.Version, ShouldEqual, modelstore.DefaultVersion)
			So(info.Features, ShouldEqual, 20)
			So(info.Location, ShouldEqual, "memory")
			So(info.TrainedAt, ShouldBeNil)
		})

		Convey("And scoring requires a model", func() {
			p, r, d := randomInput(rand.New(rand.NewSource(1)))
			_, err := store.PredictScore(ctx, p, r, d)
			So(errors.Is(err, model.ErrModelNotLoaded), ShouldBeTrue)
			_, err = store.FeatureImportance()
			So(errors.Is(err, model.ErrModelNotLoaded), ShouldBeTrue)
			_, err = store.Snapshot()
			So(errors.Is(err, model.ErrModelNotLoaded), ShouldBeTrue)
		})

		Convey("And loading with nothing persisted keeps it unloaded", func() {
			So(store.Load(ctx), ShouldBeNil)
			So(store.State(), ShouldEqual, modelstore.StateUnloaded)
		})

		Convey("And deleting with nothing persisted succeeds", func() {
			So(store.Delete(ctx), ShouldBeNil)
			So(store.State(), ShouldEqual, modelstore.StateUnloaded)
		})

		Convey("When training on generated data", func() {
			res, err := store.Train(ctx, modelstore.TrainRequest{})
			So(err, ShouldBeNil)

			Convey("Then the result reports the split and metrics", func() {
				So(res.TrainingSamples, ShouldEqual, 1600)
				So(res.TestSamples, ShouldEqual, 400)
				So(res.Version, ShouldEqual, "1.0.0")
				So(res.MSE, ShouldBeLessThan, 0.05)
				So(res.MAE, ShouldBeLessThan, 0.2)
				So(res.R2, ShouldBeGreaterThan, 0.3)
				So(res.BaselineR2, ShouldNotBeNil)
				So(res.Duration > 0, ShouldBeTrue)
			})

			Convey("And the store is loaded", func() {
				So(store.State(), ShouldEqual, modelstore.StateLoaded)
				info := store.Info()
				So(info.Loaded, ShouldBeTrue)
				So(info.TrainedAt, ShouldNotBeNil)
				So(info.Metrics.TrainingSamples, ShouldEqual, 1600)
			})

			Convey("And every score is clamped to [0,1]", func() {
				rng := rand.New(rand.NewSource(9))
				for i := 0; i < 500; i++ {
					p, r, d := randomInput(rng)
					s, err := store.PredictScore(ctx, p, r, d)
					So(err, ShouldBeNil)
					So(s, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})

			Convey("And malformed candidates fail with a feature error", func() {
				_, err := store.PredictScore(ctx, model.Player{Position: "LB"}, nil, model.DraftContext{Round: 1, Pick: 1})
				So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
			})

			Convey("And feature importance is ranked and normalized", func() {
				all, err := store.FeatureImportance()
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 20)
				var total, pct float64
				for i, imp := range all {
					So(imp.Rank, ShouldEqual, i+1)
					if i > 0 {
						So(all[i-1].Importance, ShouldBeGreaterThanOrEqualTo, imp.Importance)
					}
					total += imp.Importance
					pct += imp.Percentage
				}
				So(total, ShouldAlmostEqual, 1.0, 1e-9)
				So(pct, ShouldAlmostEqual, 100.0, 1e-6)

				top, err := store.TopFeatures(3)
				So(err, ShouldBeNil)
				So(top, ShouldResemble, all[:3])
			})

			Convey("And deleting unloads it", func() {
				So(store.Delete(ctx), ShouldBeNil)
				So(store.State(), ShouldEqual, modelstore.StateUnloaded)
				So(store.Load(ctx), ShouldBeNil)
				So(store.Loaded(), ShouldBeFalse)
			})
		})

		Convey("When training with a supplied dataset", func() {
			ds, _ := synth.Generate(300, 3)
			res, err := store.Train(ctx, modelstore.TrainRequest{Data: ds, TestFraction: 0.5, Seed: int64p(0)})

			Convey("Then the supplied rows are used", func() {
				So(err, ShouldBeNil)
				So(res.TrainingSamples, ShouldEqual, 150)
				So(res.TestSamples, ShouldEqual, 150)
			})
		})

		Convey("When the sample count is negative", func() {
			_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: -5})

			Convey("Then it fails as a training data error and stays unloaded", func() {
				So(errors.Is(err, model.ErrTrainingData), ShouldBeTrue)
				So(store.State(), ShouldEqual, modelstore.StateUnloaded)
			})
		})
	})
}

func TestStoreScenario(t *testing.T) {
	ctx := context.Background()

	Convey("Given a trained store and a ranker", t, func() {
		store := quickStore(repository.NewMemoryStore())
		_, err := store.Train(ctx, modelstore.TrainRequest{})
		So(err, ShouldBeNil)
		ranker := scoring.NewRanker(store)

		roster := model.RosterSnapshot{model.QB: 1, model.RB: 1, model.WR: 0, model.TE: 0, model.K: 0, model.DST: 0}
		draft := model.DraftContext{Round: 1, Pick: 3}
		candidates := []model.Player{
			{Name: "Runner", Position: model.RB, ADP: model.Float(8.5), ProjectedPoints: model.Float(245.3)},
			{Name: "Catcher", Position: model.WR, ADP: model.Float(12.3), ProjectedPoints: model.Float(235.7)},
			{Name: "Passer", Position: model.QB, ADP: model.Float(15.8), ProjectedPoints: model.Float(310.5)},
		}

		Convey("When recommending", func() {
			res, err := ranker.Recommend(ctx, draft, roster, candidates)
			So(err, ShouldBeNil)

			Convey("Then three annotated picks come back in score order", func() {
				So(len(res.Recommendations), ShouldEqual, 3)
				for i, rec := range res.Recommendations {
					So(rec.Explanation, ShouldNotBeEmpty)
					So(rec.RiskLevel, ShouldBeIn, model.RiskLow, model.RiskMedium, model.RiskHigh)
					So(rec.ConfidenceScore, ShouldBeBetweenOrEqual, 0.0, 1.0)
					if i > 0 {
						So(res.Recommendations[i-1].ConfidenceScore, ShouldBeGreaterThanOrEqualTo, rec.ConfidenceScore)
					}
				}
			})
		})

		Convey("When the candidate list is empty", func() {
			res, err := ranker.Recommend(ctx, draft, roster, nil)

			Convey("Then nothing is returned", func() {
				So(err, ShouldBeNil)
				So(res.Recommendations, ShouldBeEmpty)
			})
		})
	})
}

func TestStorePersistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store persisting to a file", t, func() {
		path := filepath.Join(t.TempDir(), "model.json")
		trained := quickStore(repository.NewFileStore(path))
		_, err := trained.Train(ctx, modelstore.TrainRequest{})
		So(err, ShouldBeNil)

		Convey("When another store loads the artifact", func() {
			loaded := quickStore(repository.NewFileStore(path))
			So(loaded.Load(ctx), ShouldBeNil)

			Convey("Then it scores identically", func() {
				So(loaded.State(), ShouldEqual, modelstore.StateLoaded)
				So(loaded.Info().TrainedAt.Equal(*trained.Info().TrainedAt), ShouldBeTrue)
				rng := rand.New(rand.NewSource(4))
				for i := 0; i < 100; i++ {
					p, r, d := randomInput(rng)
					a, errA := trained.PredictScore(ctx, p, r, d)
					b, errB := loaded.PredictScore(ctx, p, r, d)
					So(errA, ShouldBeNil)
					So(errB, ShouldBeNil)
					So(math.Abs(a-b), ShouldBeLessThan, 1e-6)
				}
			})
		})
	})

	Convey("Given a persisted artifact with a different feature layout", t, func() {
		repo := repository.NewMemoryStore()
		store := quickStore(repo)
		_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: 200})
		So(err, ShouldBeNil)
		a, err := repo.Load(ctx)
		So(err, ShouldBeNil)
		a.FeatureNames = a.FeatureNames[:5]
		So(repo.Save(ctx, a), ShouldBeNil)

		Convey("Then loading fails as a persistence error", func() {
			err := quickStore(repo).Load(ctx)
			So(errors.Is(err, model.ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, modelstore.ErrLayoutMismatch), ShouldBeTrue)
		})
	})
}

func TestStoreConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loaded store whose next save blocks", t, func() {
		repo := &gatedRepo{MemoryStore: repository.NewMemoryStore()}
		store := quickStore(repo)
		_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: 300})
		So(err, ShouldBeNil)
		before, err := store.Snapshot()
		So(err, ShouldBeNil)

		repo.mu.Lock()
		repo.entered = make(chan struct{})
		repo.release = make(chan struct{})
		entered, release := repo.entered, repo.release
		repo.mu.Unlock()

		done := make(chan error, 1)
		go func() {
			_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: 300, Seed: int64p(7)})
			done <- err
		}()
		<-entered

		Convey("Then the old model keeps serving while training", func() {
			So(store.State(), ShouldEqual, modelstore.StateTraining)
			p, r, d := randomInput(rand.New(rand.NewSource(2)))
			got, err := store.PredictScore(ctx, p, r, d)
			So(err, ShouldBeNil)
			want, _ := before.Score(ctx, p, r, d)
			So(got, ShouldEqual, want)

			_, err = store.TryTrain(ctx, modelstore.TrainRequest{NumSamples: 300})
			So(errors.Is(err, model.ErrTrainingInProgress), ShouldBeTrue)

			close(release)
			So(<-done, ShouldBeNil)
			So(store.State(), ShouldEqual, modelstore.StateLoaded)
		})
	})

	Convey("Given a loaded store whose next save fails", t, func() {
		repo := &gatedRepo{MemoryStore: repository.NewMemoryStore()}
		store := quickStore(repo)
		_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: 300})
		So(err, ShouldBeNil)
		trainedAt := store.Info().TrainedAt

		repo.mu.Lock()
		repo.failSave = true
		repo.mu.Unlock()

		Convey("Then training reports persistence and the old artifact stays live", func() {
			_, err := store.Train(ctx, modelstore.TrainRequest{NumSamples: 300, Seed: int64p(8)})
			So(errors.Is(err, model.ErrPersistence), ShouldBeTrue)
			So(store.State(), ShouldEqual, modelstore.StateLoaded)
			So(store.Info().TrainedAt.Equal(*trainedAt), ShouldBeTrue)
		})
	})
}

func TestStoreClock(t *testing.T) {
	Convey("Given a store with a fixed clock", t, func() {
		fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		store := modelstore.New(repository.NewMemoryStore(),
			modelstore.WithDefaults(500, 0.2, 42),
			modelstore.WithBoosting(gbt.WithNumTrees(5)),
			modelstore.WithClock(func() time.Time { return fixed }),
		)

		Convey("When a model is trained", func() {
			_, err := store.Train(context.Background(), modelstore.TrainRequest{})

			Convey("Then the artifact is stamped with the clock time", func() {
				So(err, ShouldBeNil)
				So(store.Info().TrainedAt, ShouldNotBeNil)
				So(store.Info().TrainedAt.Equal(fixed), ShouldBeTrue)
			})
		})
	})
}
