package worker_test

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/queue"
	"github.com/gruntwork-io/partools/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context, n int) (int, error) {
	return n * 2, nil
}

func sequence(from, to int) []int {
	nums := make([]int, 0, to-from+1)

	for n := from; n <= to; n++ {
		nums = append(nums, n)
	}

	return nums
}

func collect[R any](t *testing.T, m *worker.Map[int, R]) ([]R, []error, error) {
	t.Helper()

	var (
		values []R
		errs   []error
	)

	err := m.Iterate(t.Context(), func(res worker.Result[R]) bool {
		if res.Err != nil {
			errs = append(errs, res.Err)
		} else {
			values = append(values, res.Value)
		}

		return true
	})

	return values, errs, err
}

func TestMapDoublesEveryItem(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 100)), 4, double)
	assert.Equal(t, 4, m.Workers())

	values, errs, err := collect(t, m)
	require.NoError(t, err)
	assert.Empty(t, errs)

	slices.Sort(values)

	expected := make([]int, 0, 100)
	for _, n := range sequence(1, 100) {
		expected = append(expected, n*2)
	}

	assert.Equal(t, expected, values)

	consumed, submitted := m.Progress()
	assert.Equal(t, 100, consumed)
	assert.Equal(t, 100, submitted)
}

func TestMapEmptySource(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice([]int{}), 3, double)

	values, errs, err := collect(t, m)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Empty(t, errs)

	consumed, submitted := m.Progress()
	assert.Zero(t, consumed)
	assert.Zero(t, submitted)
}

func TestMapSingleWorkerKeepsOrder(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 50)), 1, func(_ context.Context, n int) (int, error) {
		// Uneven work must not reorder results of a single worker.
		if n%7 == 0 {
			time.Sleep(time.Millisecond)
		}

		return n, nil
	})

	values, _, err := collect(t, m)
	require.NoError(t, err)
	assert.Equal(t, sequence(1, 50), values)
}

func TestMapDeliversInCompletionOrder(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice([]int{1, 2}), 2, func(_ context.Context, n int) (int, error) {
		if n == 1 {
			time.Sleep(100 * time.Millisecond)
		}

		return n, nil
	})

	values, _, err := collect(t, m)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, values)
}

func TestMapDeliveryOrderIsNotSubmissionOrder(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 100)), 4, func(ctx context.Context, n int) (int, error) {
		// The other workers finish the remaining items while the first one is held up.
		if n == 1 {
			time.Sleep(50 * time.Millisecond)
		}

		return double(ctx, n)
	})

	values, errs, err := collect(t, m)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Len(t, values, 100)
	assert.False(t, slices.IsSorted(values), "results were delivered in submission order")

	slices.Sort(values)

	expected := make([]int, 0, 100)
	for _, n := range sequence(1, 100) {
		expected = append(expected, n*2)
	}

	assert.Equal(t, expected, values)
}

func TestMapProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSeq(slices.Values(sequence(1, 200))), 8, double)

	lastConsumed, lastSubmitted := 0, 0

	err := m.Iterate(t.Context(), func(_ worker.Result[int]) bool {
		consumed, submitted := m.Progress()

		assert.LessOrEqual(t, consumed, submitted)
		assert.GreaterOrEqual(t, consumed, lastConsumed)
		assert.GreaterOrEqual(t, submitted, lastSubmitted)
		assert.Equal(t, lastConsumed+1, consumed)

		lastConsumed, lastSubmitted = consumed, submitted

		return true
	})
	require.NoError(t, err)

	consumed, submitted := m.Progress()
	assert.Equal(t, 200, consumed)
	assert.Equal(t, 200, submitted)
}

func TestMapIterateTwiceResetsProgress(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 10)), 2, double)

	for range 2 {
		values, _, err := collect(t, m)
		require.NoError(t, err)
		assert.Len(t, values, 10)

		consumed, submitted := m.Progress()
		assert.Equal(t, 10, consumed)
		assert.Equal(t, 10, submitted)
	}
}

func TestMapEarlyExitStopsWorkers(t *testing.T) {
	t.Parallel()

	var calls, running atomic.Int64

	m := worker.New(worker.FromSlice(sequence(1, 1000)), 4, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		running.Add(1)
		defer running.Add(-1)

		time.Sleep(5 * time.Millisecond)

		return n, nil
	})

	received := 0

	err := m.Iterate(t.Context(), func(_ worker.Result[int]) bool {
		received++

		return received < 3
	})
	require.NoError(t, err)

	assert.Equal(t, 3, received)
	assert.Zero(t, running.Load(), "all workers must be joined before Iterate returns")

	stopped := calls.Load()
	assert.Less(t, stopped, int64(1000))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no item may be processed after Iterate returns")
}

func TestMapRecoverableErrorsAreIsolated(t *testing.T) {
	t.Parallel()

	errOdd := errors.New("odd")

	m := worker.New(worker.FromSlice(sequence(1, 10)), 3, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, errOdd
		}

		return n, nil
	})

	values, errs, err := collect(t, m)
	require.NoError(t, err)

	slices.Sort(values)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, values)
	require.Len(t, errs, 5)

	for _, err := range errs {
		require.ErrorIs(t, err, errOdd)
	}
}

func TestMapFatalErrorStopsRun(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	var running atomic.Int64

	m := worker.New(worker.FromSlice(sequence(1, 100)), 1, func(_ context.Context, n int) (int, error) {
		running.Add(1)
		defer running.Add(-1)

		if n == 5 {
			return 0, worker.Fatal(errBoom)
		}

		return n, nil
	})

	values, errs, err := collect(t, m)
	require.ErrorIs(t, err, errBoom)

	var fatalErr *worker.FatalError
	require.ErrorAs(t, err, &fatalErr)

	assert.Equal(t, []int{1, 2, 3, 4}, values, "results completed before the fatal one are delivered")
	assert.Empty(t, errs)
	assert.Zero(t, running.Load())

	consumed, submitted := m.Progress()
	assert.Equal(t, 4, consumed)
	assert.GreaterOrEqual(t, submitted, 5)
}

func TestMapPanicIsFatal(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 10)), 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			panic("unexpected item")
		}

		return n, nil
	})

	_, _, err := collect(t, m)
	require.Error(t, err)

	var panicErr *worker.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Contains(t, panicErr.Error(), "unexpected item")
	assert.NotEmpty(t, panicErr.ErrorStack())
}

func TestMapCustomClassifier(t *testing.T) {
	t.Parallel()

	errAny := errors.New("any failure")

	m := worker.New(worker.FromSlice(sequence(1, 10)), 1, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errAny
		}

		return n, nil
	}, worker.WithClassifier(func(error) bool { return true }))

	values, _, err := collect(t, m)
	require.ErrorIs(t, err, errAny)
	assert.Equal(t, []int{1}, values)
}

func TestMapSourceErrorIsFatal(t *testing.T) {
	t.Parallel()

	errSource := errors.New("broken source")

	var source worker.Source[int] = func(_ context.Context, yield func(int) bool) error {
		for _, n := range []int{1, 2, 3} {
			if !yield(n) {
				return nil
			}
		}

		return errSource
	}

	m := worker.New(source, 2, double)

	_, _, err := collect(t, m)
	require.ErrorIs(t, err, errSource)
}

func TestMapContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	m := worker.New(worker.FromSlice(sequence(1, 1000)), 2, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Millisecond)

		return n, ctx.Err()
	})

	received := 0

	err := m.Iterate(ctx, func(_ worker.Result[int]) bool {
		received++
		if received == 5 {
			cancel()
		}

		return true
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, received, 1000)
}

func TestMapProgressCountsOnlyPushedItems(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	lastYield := make(chan struct{})

	var source worker.Source[int] = func(_ context.Context, yield func(int) bool) error {
		for n := 1; n <= 3; n++ {
			if n == 3 {
				close(lastYield)
			}

			if !yield(n) {
				return nil
			}
		}

		return nil
	}

	// The worker holds item 1 and item 2 fills the queue, so the push of item 3 blocks until cancelled.
	m := worker.New(source, 1, func(ctx context.Context, _ int) (int, error) {
		<-ctx.Done()

		return 0, ctx.Err()
	}, worker.WithQueueCapacity(1))

	go func() {
		<-lastYield
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := m.Iterate(ctx, func(worker.Result[int]) bool { return true })
	require.ErrorIs(t, err, context.Canceled)

	consumed, submitted := m.Progress()
	assert.Zero(t, consumed)
	assert.Equal(t, 2, submitted)
}

func TestMapBoundedQueue(t *testing.T) {
	t.Parallel()

	m := worker.New(worker.FromSlice(sequence(1, 50)), 2, double, worker.WithQueueCapacity(1))

	values, _, err := collect(t, m)
	require.NoError(t, err)
	assert.Len(t, values, 50)
}

func TestMapFromQueue(t *testing.T) {
	t.Parallel()

	q := queue.New[int]()

	for _, n := range sequence(1, 5) {
		require.NoError(t, q.Push(t.Context(), n))
	}

	q.Close()

	m := worker.New(worker.FromQueue(q), 1, double)

	values, _, err := collect(t, m)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, values)
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err      error
		name     string
		expected bool
	}{
		{name: "plain error", err: errors.New("plain"), expected: false},
		{name: "fatal", err: worker.Fatal(errors.New("fatal")), expected: true},
		{name: "wrapped fatal", err: errors.WithStackTrace(worker.Fatal(errors.New("fatal"))), expected: true},
		{name: "panic", err: &worker.PanicError{Value: "oops"}, expected: true},
		{name: "canceled", err: context.Canceled, expected: true},
		{name: "deadline", err: context.DeadlineExceeded, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, worker.IsFatal(tc.err))
		})
	}

	assert.NoError(t, worker.Fatal(nil))
}

func TestDefaultWorkers(t *testing.T) {
	t.Setenv(worker.NumThreadsEnvName, "3")

	assert.Equal(t, 3, worker.DefaultWorkers())
	assert.Equal(t, 3, worker.New(worker.FromSlice([]int{}), 0, double).Workers())

	t.Setenv(worker.NumThreadsEnvName, "-1")
	assert.Positive(t, worker.DefaultWorkers())
}
