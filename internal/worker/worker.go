// Package worker provides a parallel map engine over a fixed pool of workers.
//
// A Map applies a function to every item of a Source using N long-lived goroutines. Items flow through
// two closable queues: an enumerating goroutine pushes the source items into the input queue, the
// workers pop them, call the function and push the results into the output queue, and the caller's
// goroutine pops the results and hands them to its callback in completion order. With a single worker,
// completion order equals submission order.
//
// Errors returned by the function are classified: recoverable errors are delivered to the caller as
// Result.Err and the run continues, fatal errors (see IsFatal) stop the run and are returned by Iterate
// after every worker has finished its current item. Whatever ends the run, no goroutine started by
// Iterate outlives it.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/queue"
)

// Func is the function applied to every item. It is called concurrently from all workers.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Map applies a Func to the items of a Source in parallel.
type Map[T, R any] struct {
	opts      *options
	source    Source[T]
	fn        Func[T, R]
	workers   int
	consumed  atomic.Int64
	submitted atomic.Int64
}

// New returns a Map running fn over the items of source with the given number of workers.
// A worker count of zero or less resolves to DefaultWorkers.
func New[T, R any](source Source[T], workers int, fn Func[T, R], opts ...Option) *Map[T, R] {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	return &Map[T, R]{
		opts:    newOptions(opts...),
		source:  source,
		fn:      fn,
		workers: workers,
	}
}

// Workers returns the number of goroutines Iterate runs the function on.
func (m *Map[T, R]) Workers() int {
	return m.workers
}

// Progress returns how many results were handed to the caller and how many items were submitted to
// the workers so far. It is safe to call from any goroutine.
func (m *Map[T, R]) Progress() (consumed, submitted int) {
	// Load consumed first so that the pair never shows consumed > submitted.
	consumed = int(m.consumed.Load())
	submitted = int(m.submitted.Load())

	return consumed, submitted
}

// Iterate runs the map and calls yield with every result as it completes. It stops early when yield
// returns false, when a fatal error occurs, or when ctx is done. It returns the fatal error, or the ctx
// error if the run was cancelled, or nil.
func (m *Map[T, R]) Iterate(ctx context.Context, yield func(Result[R]) bool) error {
	m.consumed.Store(0)
	m.submitted.Store(0)

	var (
		input  = queue.New[T](queue.WithCapacity(m.opts.queueCapacity))
		output = queue.New[outcome[R]]()
		logger = m.opts.logger
	)

	logger.Debugf("Starting %d workers", m.workers)

	var workers sync.WaitGroup

	for id := range m.workers {
		workers.Add(1)

		go func() {
			defer workers.Done()

			m.work(ctx, input, output)
			logger.Tracef("Worker %d stopped", id)
		}()
	}

	drained := make(chan struct{})

	go func() {
		defer close(drained)

		workers.Wait()
		output.Close()
	}()

	feedCtx, stopFeed := context.WithCancel(ctx)
	fed := make(chan struct{})

	go func() {
		defer close(fed)
		defer input.Close()

		if err := m.feed(feedCtx, input); err != nil {
			// Ignore the error if the push fails, it means the run is already over.
			_ = output.Push(ctx, outcome[R]{err: errors.WithStackTrace(err), fatal: true})
		}
	}()

	defer func() {
		stopFeed()
		input.Close()

		if dropped := input.Clear(); dropped > 0 {
			logger.Debugf("Discarded %d pending items", dropped)
		}

		<-fed
		<-drained
	}()

	for ctx.Err() == nil {
		res, err := output.Pop(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if errors.Is(err, queue.ErrClosed) {
				return nil
			}

			return err
		}

		if res.fatal {
			return res.err
		}

		m.consumed.Add(1)

		if !yield(Result[R]{Value: res.value, Err: res.err}) {
			return nil
		}
	}

	return ctx.Err()
}

// feed walks the source and pushes every item into the input queue. It returns the source error,
// unless the run was stopped while enumerating.
func (m *Map[T, R]) feed(ctx context.Context, input *queue.Queue[T]) error {
	err := m.source(ctx, func(item T) bool {
		// Counted before the push so that consumed never exceeds submitted.
		m.submitted.Add(1)

		if err := input.Push(ctx, item); err != nil {
			m.submitted.Add(-1)
			return false
		}

		return true
	})

	if err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

func (m *Map[T, R]) work(ctx context.Context, input *queue.Queue[T], output *queue.Queue[outcome[R]]) {
	for {
		item, err := input.Pop(ctx)
		if err != nil {
			return
		}

		if err := output.Push(ctx, m.call(ctx, item)); err != nil {
			return
		}
	}
}

func (m *Map[T, R]) call(ctx context.Context, item T) (res outcome[R]) {
	defer errors.Recover(func(cause error) {
		err := &PanicError{Value: cause.Error(), Err: cause}
		res = outcome[R]{err: err, fatal: m.opts.classify(err)}
	})

	value, err := m.fn(ctx, item)
	if err != nil {
		return outcome[R]{err: err, fatal: m.opts.classify(err)}
	}

	return outcome[R]{value: value}
}
