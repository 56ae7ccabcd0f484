package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/scoutai/scoutai/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if err := q.Enqueue(ctx, Request{ID: "job1", NumSamples: 100}); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.ID != "job1" || r.NumSamples != 100 {
		t.Errorf("unexpected request %+v", r)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, Request{ID: fmt.Sprintf("job%d", i)}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	err := q.Enqueue(ctx, Request{ID: "overflow"})
	if !errors.Is(err, model.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Order(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, Request{ID: fmt.Sprintf("job%d", i)}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	ch := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		select {
		case r := <-ch:
			if want := fmt.Sprintf("job%d", i); r.ID != want {
				t.Errorf("expected %s, got %s", want, r.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for request")
		}
	}
}

func TestInMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(50))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := q.Enqueue(ctx, Request{ID: fmt.Sprintf("job%d", i)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, model.ErrQueueFull) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	if accepted != 50 || rejected != 50 {
		t.Errorf("expected 50 accepted and 50 rejected, got %d and %d", accepted, rejected)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, Request{ID: "pending"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, Request{ID: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	ch := q.Dequeue(ctx)
	if r, ok := <-ch; !ok || r.ID != "pending" {
		t.Errorf("expected pending request to drain, got %+v ok=%v", r, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("expected dequeue channel to close after drain")
	}
}

func TestInMemoryQueue_CancelledEnqueue(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, Request{ID: "job"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
