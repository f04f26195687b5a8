// Package queue provides a closable concurrent FIFO queue.
//
// The queue is the only synchronization point between the producers and consumers of the worker pool:
// pushing never blocks unless a capacity was given, popping blocks until an item is available or the
// queue is closed. Once closed, no more items are accepted, and Pop keeps returning the remaining items
// until the queue is drained, after which it returns ErrClosed.
//
// A queue is unbounded by default. A fast producer paired with slow consumers therefore grows the queue
// without limit; use WithCapacity to apply backpressure to the producer instead.
package queue

import (
	"context"
	"sync"

	"github.com/gruntwork-io/partools/internal/errors"
)

// ErrClosed is returned by Push once the queue is closed, and by Pop once it is closed and drained.
var ErrClosed = errors.New("queue is closed")

// Option configures a Queue.
type Option func(*config)

type config struct {
	capacity int
}

// WithCapacity bounds the number of pending items. Push blocks while the queue holds `capacity` items.
// Zero or a negative value means unbounded.
func WithCapacity(capacity int) Option {
	return func(cfg *config) {
		cfg.capacity = capacity
	}
}

// Queue is a closable FIFO safe for concurrent use by multiple producers and consumers.
type Queue[T any] struct {
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []T
	capacity int
	mu       sync.Mutex
	closed   bool
}

// New returns an empty, open queue.
func New[T any](opts ...Option) *Queue[T] {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	q := &Queue[T]{capacity: cfg.capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	return q
}

// Push appends the item to the queue. It blocks while a bounded queue is full.
// It returns ErrClosed if the queue is closed, or the ctx error if ctx is done before the item is accepted.
func (q *Queue[T]) Push(ctx context.Context, item T) error {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.full() && ctx.Err() == nil {
		q.notFull.Wait()
	}

	if q.closed {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()

	return nil
}

// Pop removes and returns the oldest item. It blocks while the queue is empty and open.
// It returns ErrClosed when the queue is closed and drained, or the ctx error if ctx is done first.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.notEmpty.Wait()
	}

	var item T

	if len(q.items) == 0 {
		if q.closed {
			return item, ErrClosed
		}

		return item, ctx.Err()
	}

	item = q.items[0]

	var zero T

	q.items[0] = zero
	q.items = q.items[1:]
	q.notFull.Signal()

	return item, nil
}

// Close stops the queue from accepting items. Items already queued can still be popped.
// Closing an already closed queue is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Clear discards all pending items and returns how many were dropped.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.notFull.Broadcast()

	return n
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// IsClosed reports whether Close was called.
func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

func (q *Queue[T]) full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

func (q *Queue[T]) wakeAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
