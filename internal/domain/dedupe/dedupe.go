// Package dedupe tracks idempotency keys for training submissions.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 1000

// Deduper maps idempotency keys to the job they created.
type Deduper interface {
	// Claim atomically binds key to id unless key is already bound.
	// It returns the bound id and true when key was seen before.
	Claim(ctx context.Context, key, id string) (existing string, seen bool)

	// Release forgets key so the submission can be retried, e.g. after the
	// job it named was rejected.
	Release(ctx context.Context, key string)

	Size() int64
}

// node is one entry in the recency list; head is the newest.
type node struct {
	key        string
	id         string
	prev, next *node
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest first.
// maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]*node
	head    *node
	tail    *node
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.entries = make(map[string]*node)
	return d
}

// Claim binds key to id if key is new.
func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		return n.id, true
	}

	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := &node{key: key, id: id, next: d.head}
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[key] = n
	d.size.Add(1)
	return id, false
}

// Release removes key if present.
func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		d.unlink(n)
	}
}

// evictOldest drops the tail. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.unlink(d.tail)
	}
}

// unlink removes n from the list and map. Must be called with d.mu held.
func (d *inMemoryDeduper) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(d.entries, n.key)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
