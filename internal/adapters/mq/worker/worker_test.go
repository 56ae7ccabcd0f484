package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/scoutai/scoutai/internal/adapters/mq/queue"
	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/modelstore"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan queue.Request
}

func newMockQueue() *mockQueue { return &mockQueue{ch: make(chan queue.Request, 10)} }

func (m *mockQueue) Dequeue(_ context.Context) <-chan queue.Request { return m.ch }

type mockTrainer struct {
	mu      sync.Mutex
	calls   []int
	err     error
	release chan struct{}
	entered chan struct{}
}

func (m *mockTrainer) Train(_ context.Context, numSamples int) (modelstore.TrainResult, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	m.calls = append(m.calls, numSamples)
	m.mu.Unlock()
	if m.err != nil {
		return modelstore.TrainResult{}, m.err
	}
	return modelstore.TrainResult{R2: 0.9, TrainingSamples: numSamples}, nil
}

func (m *mockTrainer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func waitFor(t *testing.T, tracker *Tracker, id string, want Status) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := tracker.Get(id)
		if err == nil && j.Status == want {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	j, _ := tracker.Get(id)
	t.Fatalf("job %s status = %s, want %s", id, j.Status, want)
	return j
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker with a trainer", t, func() {
		q := newMockQueue()
		trainer := &mockTrainer{}
		tracker := NewTracker(10)
		w := New(q, trainer, tracker, WithName("test-trainer"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			tracker.Add("job-1", 500)
			q.ch <- queue.Request{ID: "job-1", NumSamples: 500, SubmittedAt: time.Now()}

			convey.Convey("Then it finishes with a result", func() {
				j := waitFor(t, tracker, "job-1", StatusSucceeded)
				convey.So(j.Result, convey.ShouldNotBeNil)
				convey.So(j.Result.TrainingSamples, convey.ShouldEqual, 500)
				convey.So(j.StartedAt, convey.ShouldNotBeNil)
				convey.So(j.FinishedAt, convey.ShouldNotBeNil)
				convey.So(j.Done(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then Shutdown returns and can be repeated", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a trainer that fails", t, func() {
		q := newMockQueue()
		trainer := &mockTrainer{err: fmt.Errorf("%w: disk full", model.ErrPersistence)}
		tracker := NewTracker(10)
		w := New(q, trainer, tracker)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		tracker.Add("job-2", 100)
		q.ch <- queue.Request{ID: "job-2", NumSamples: 100, SubmittedAt: time.Now()}

		convey.Convey("Then the job is marked failed with the error kind", func() {
			j := waitFor(t, tracker, "job-2", StatusFailed)
			convey.So(j.Result, convey.ShouldBeNil)
			convey.So(j.Error, convey.ShouldContainSubstring, "disk full")
			convey.So(j.ErrorKind, convey.ShouldEqual, model.KindPersistence)
		})
	})
}

func TestWorkerRunsJobsSequentially(t *testing.T) {
	q := newMockQueue()
	trainer := &mockTrainer{release: make(chan struct{}), entered: make(chan struct{}, 2)}
	tracker := NewTracker(10)
	w := New(q, trainer, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for _, id := range []string{"a", "b"} {
		tracker.Add(id, 10)
		q.ch <- queue.Request{ID: id, NumSamples: 10, SubmittedAt: time.Now()}
	}

	<-trainer.entered
	waitFor(t, tracker, "a", StatusRunning)
	if j, _ := tracker.Get("b"); j.Status != StatusQueued {
		t.Errorf("second job status = %s while first is running, want %s", j.Status, StatusQueued)
	}

	trainer.release <- struct{}{}
	<-trainer.entered
	trainer.release <- struct{}{}

	waitFor(t, tracker, "a", StatusSucceeded)
	waitFor(t, tracker, "b", StatusSucceeded)
	if trainer.callCount() != 2 {
		t.Errorf("trainer called %d times, want 2", trainer.callCount())
	}
}

func TestWorkerStopsWhenQueueCloses(t *testing.T) {
	q := newMockQueue()
	w := New(q, &mockTrainer{}, NewTracker(1))

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	close(q.ch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after queue closed")
	}
}

func TestShutdownTimeout(t *testing.T) {
	w := New(newMockQueue(), &mockTrainer{}, NewTracker(1))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Run was never started so done never closes.
	if err := w.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
}

func TestTracker(t *testing.T) {
	convey.Convey("Given a tracker retaining two finished jobs", t, func() {
		tracker := NewTracker(2)

		convey.Convey("When an unknown job is requested", func() {
			_, err := tracker.Get("missing")

			convey.Convey("Then it is not found", func() {
				convey.So(errors.Is(err, model.ErrJobNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When three jobs finish", func() {
			for _, id := range []string{"1", "2", "3"} {
				tracker.Add(id, 1)
				tracker.start(id)
				tracker.finish(id, modelstore.TrainResult{}, nil)
			}
			tracker.Add("4", 1)

			convey.Convey("Then the oldest is forgotten and queued jobs are kept", func() {
				_, err := tracker.Get("1")
				convey.So(errors.Is(err, model.ErrJobNotFound), convey.ShouldBeTrue)
				j, err := tracker.Get("3")
				convey.So(err, convey.ShouldBeNil)
				convey.So(j.Status, convey.ShouldEqual, StatusSucceeded)

				counts := tracker.Counts()
				convey.So(counts[StatusSucceeded], convey.ShouldEqual, 2)
				convey.So(counts[StatusQueued], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a job is removed", func() {
			tracker.Add("gone", 1)
			tracker.Remove("gone")

			convey.Convey("Then it is not found", func() {
				_, err := tracker.Get("gone")
				convey.So(errors.Is(err, model.ErrJobNotFound), convey.ShouldBeTrue)
			})
		})
	})
}
