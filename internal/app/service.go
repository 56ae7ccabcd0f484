// Package service wires the model store, ranker and training worker into the
// operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/scoutai/scoutai/internal/adapters/mq/queue"
	"github.com/scoutai/scoutai/internal/adapters/mq/worker"
	"github.com/scoutai/scoutai/internal/domain/dedupe"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/domain/scoring"
	"github.com/scoutai/scoutai/internal/modelstore"
	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
)

// Service implements the API dependencies for the draft engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *modelstore.Store
	ranker  *scoring.Ranker
	queue   *queue.InMemoryQueue
	tracker *worker.Tracker
	worker  *worker.Worker
	keys    dedupe.Deduper
	cron    *cron.Cron

	// Configuration
	queueSize      int
	jobRetention   int
	topK           int
	defaultSamples int
	retrainSpec    string

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets how many async training jobs may wait.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobRetention sets how many finished jobs stay pollable.
func WithJobRetention(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jobRetention = n
		}
	}
}

// WithTopK sets the number of recommendations returned.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithDefaultSamples sets the sample count used when a training call passes 0.
func WithDefaultSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultSamples = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service around store. Call Start to run queued training.
func New(store *modelstore.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		queueSize:      8,
		jobRetention:   100,
		topK:           3,
		defaultSamples: modelstore.DefaultNumSamples,
		logger:         logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.ranker = scoring.NewRanker(store,
		scoring.WithTopK(s.topK),
		scoring.WithLogger(s.logger.Named("ranker")),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.tracker = worker.NewTracker(s.jobRetention)
	s.keys = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.jobRetention))
	s.worker = worker.New(s.queue, trainer{s}, s.tracker,
		worker.WithName("trainer"),
		worker.WithLogger(s.logger),
	)

	return s
}

// trainer adapts the store to worker.Trainer.
type trainer struct{ s *Service }

func (t trainer) Train(ctx context.Context, numSamples int) (modelstore.TrainResult, error) {
	return t.s.store.Train(ctx, modelstore.TrainRequest{NumSamples: numSamples})
}

// Start runs the training worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if err := s.startSchedule(ctx); err != nil {
		s.cancel()
		return err
	}
	go s.worker.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "draft service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("topK", s.topK),
		logger.String("modelState", string(s.store.State())),
	)
	return nil
}

// Stop stops accepting training jobs and waits for the running one to finish
// or ctx to expire. Jobs still queued are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping draft service...")
	s.stopSchedule(ctx)
	_ = s.queue.Close()
	err := s.worker.Shutdown(ctx)
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "draft service stopped")
	return err
}

// Status reports whether a model is loaded and what it expects.
func (s *Service) Status() modelstore.Status {
	return s.store.Status()
}

// Recommend ranks the candidates for the current pick.
func (s *Service) Recommend(ctx context.Context, draft model.DraftContext, roster model.RosterSnapshot, candidates []model.Player) (scoring.Result, error) {
	return s.ranker.Recommend(ctx, draft, roster, candidates)
}

// TrainAsync queues a training job and returns its handle. numSamples 0 uses
// the configured default.
func (s *Service) TrainAsync(ctx context.Context, numSamples int) (worker.Job, error) {
	n, err := s.samples(numSamples)
	if err != nil {
		return worker.Job{}, err
	}
	id := uuid.NewString()
	return s.submit(ctx, s.tracker.Add(id, n))
}

// TrainAsyncOnce is TrainAsync keyed by a client idempotency key. A repeated
// key returns the job it first created and replayed is true. An empty key
// behaves like TrainAsync.
func (s *Service) TrainAsyncOnce(ctx context.Context, key string, numSamples int) (job worker.Job, replayed bool, err error) {
	if key == "" {
		job, err = s.TrainAsync(ctx, numSamples)
		return job, false, err
	}
	n, err := s.samples(numSamples)
	if err != nil {
		return worker.Job{}, false, err
	}

	id := uuid.NewString()
	job = s.tracker.Add(id, n)
	existing, seen := s.keys.Claim(ctx, key, id)
	if seen {
		if prior, getErr := s.tracker.Get(existing); getErr == nil {
			s.tracker.Remove(id)
			return prior, true, nil
		}
		// The prior job aged out of the tracker; rebind the key.
		s.keys.Release(ctx, key)
		s.keys.Claim(ctx, key, id)
	}

	job, err = s.submit(ctx, job)
	if err != nil {
		s.keys.Release(ctx, key)
		return worker.Job{}, false, err
	}
	return job, false, nil
}

func (s *Service) submit(ctx context.Context, job worker.Job) (worker.Job, error) {
	err := s.queue.Enqueue(ctx, queue.Request{ID: job.ID, NumSamples: job.NumSamples, SubmittedAt: job.SubmittedAt})
	if err != nil {
		s.tracker.Remove(job.ID)
		metrics.RecordTrainingRun(metrics.ResultRejected, 0)
		s.logger.Warn(ctx, "training job rejected", logger.Int("num_samples", job.NumSamples), logger.Error(err))
		return worker.Job{}, err
	}

	s.logger.Info(ctx, "training job queued", logger.String("job_id", job.ID), logger.Int("num_samples", job.NumSamples))
	return job, nil
}

// TrainSync trains in the caller's goroutine. It fails with
// model.ErrTrainingInProgress rather than wait behind another fit.
func (s *Service) TrainSync(ctx context.Context, numSamples int) (modelstore.TrainResult, error) {
	n, err := s.samples(numSamples)
	if err != nil {
		return modelstore.TrainResult{}, err
	}
	return s.store.TryTrain(ctx, modelstore.TrainRequest{NumSamples: n})
}

// Job returns the state of a training job.
func (s *Service) Job(id string) (worker.Job, error) {
	return s.tracker.Get(id)
}

// Delete removes the model artifact.
func (s *Service) Delete(ctx context.Context) error {
	return s.store.Delete(ctx)
}

// ModelInfo describes the store and the live artifact.
func (s *Service) ModelInfo() modelstore.Info {
	return s.store.Info()
}

// FeatureImportance returns every feature ranked by importance.
func (s *Service) FeatureImportance() ([]modelstore.Importance, error) {
	return s.store.FeatureImportance()
}

// TopFeatures returns the n most important features.
func (s *Service) TopFeatures(n int) ([]modelstore.Importance, error) {
	return s.store.TopFeatures(n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	counts := s.tracker.Counts()
	stats := map[string]interface{}{
		"started":         s.started,
		"modelState":      s.store.State(),
		"modelLoaded":     s.store.Loaded(),
		"queueLength":     queueLen,
		"queueCapacity":   s.queue.Cap(),
		"topK":            s.topK,
		"retrainSchedule": s.retrainSpec,
		"idempotencyKeys": s.keys.Size(),
		"jobs": map[string]int{
			string(worker.StatusQueued):    counts[worker.StatusQueued],
			string(worker.StatusRunning):   counts[worker.StatusRunning],
			string(worker.StatusSucceeded): counts[worker.StatusSucceeded],
			string(worker.StatusFailed):    counts[worker.StatusFailed],
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	metrics.UpdateModelLoaded(s.store.Loaded())
	return stats
}

func (s *Service) samples(n int) (int, error) {
	if n == 0 {
		return s.defaultSamples, nil
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: num_samples must be at least 2, got %d", model.ErrTrainingData, n)
	}
	return n, nil
}
