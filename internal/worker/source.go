package worker

import (
	"context"
	"iter"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/queue"
)

// Source enumerates the items of a run. It calls yield once per item, in order, and must stop as soon
// as yield returns false. A non-nil error aborts the run.
type Source[T any] func(ctx context.Context, yield func(item T) bool) error

// FromSlice enumerates the elements of items.
func FromSlice[T any](items []T) Source[T] {
	return func(_ context.Context, yield func(T) bool) error {
		for _, item := range items {
			if !yield(item) {
				break
			}
		}

		return nil
	}
}

// FromSeq enumerates the values of seq.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return func(_ context.Context, yield func(T) bool) error {
		for item := range seq {
			if !yield(item) {
				break
			}
		}

		return nil
	}
}

// FromQueue enumerates the items popped from q until it is closed and drained.
func FromQueue[T any](q *queue.Queue[T]) Source[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for {
			item, err := q.Pop(ctx)
			if errors.Is(err, queue.ErrClosed) {
				return nil
			}

			if err != nil {
				return err
			}

			if !yield(item) {
				return nil
			}
		}
	}
}
