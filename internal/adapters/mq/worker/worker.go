// Package worker runs queued training jobs one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/scoutai/scoutai/internal/adapters/mq/queue"
	"github.com/scoutai/scoutai/internal/modelstore"
	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
)

// Trainer runs one training job.
type Trainer interface {
	Train(ctx context.Context, numSamples int) (modelstore.TrainResult, error)
}

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker drains the training queue sequentially.
type Worker struct {
	queue   Queue
	trainer Trainer
	tracker *Tracker
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker reporting job state to tracker.
func New(q Queue, trainer Trainer, tracker *Tracker, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		trainer:  trainer,
		tracker:  tracker,
		name:     "trainer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run processes requests until ctx is cancelled, Shutdown is called or the
// queue closes. A job that has started always runs to completion.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	metrics.UpdateWorkerActive(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, r)
		}
	}
}

// Shutdown stops the worker after the running job, if any.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, r queue.Request) {
	start := time.Now()
	metrics.UpdateWorkerActive(true)
	defer func() {
		metrics.UpdateWorkerActive(false)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.tracker.start(r.ID)
	// Store logs emitted during the fit carry the job id.
	ctx = logger.WithFields(ctx, logger.String("job_id", r.ID))
	w.logger.Info(ctx, "training job started",
		logger.Int("num_samples", r.NumSamples),
		logger.Duration("waited", start.Sub(r.SubmittedAt)),
	)

	// A started fit is not cancelled by transport shutdown.
	res, err := w.trainer.Train(context.WithoutCancel(ctx), r.NumSamples)
	w.tracker.finish(r.ID, res, err)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "training job failed", logger.Error(err))
		return
	}
	w.logger.Info(ctx, "training job finished",
		logger.Float64("r2", res.R2),
		logger.Duration("elapsed", time.Since(start)),
	)
}
