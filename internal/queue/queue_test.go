package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gruntwork-io/partools/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int]()

	for i := range 5 {
		require.NoError(t, q.Push(ctx, i))
	}

	assert.Equal(t, 5, q.Len())

	for i := range 5 {
		item, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, item)
	}
}

func TestQueueCloseDrainsRemainder(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[string]()

	require.NoError(t, q.Push(ctx, "a"))
	require.NoError(t, q.Push(ctx, "b"))
	q.Close()
	q.Close()

	assert.True(t, q.IsClosed())
	require.ErrorIs(t, q.Push(ctx, "c"), queue.ErrClosed)

	item, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", item)

	item, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", item)

	_, err = q.Pop(ctx)
	require.ErrorIs(t, err, queue.ErrClosed)
}

func TestQueueClear(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int]()

	for i := range 3 {
		require.NoError(t, q.Push(ctx, i))
	}

	assert.Equal(t, 3, q.Clear())
	assert.Equal(t, 0, q.Len())

	q.Close()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, queue.ErrClosed)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int]()

	popped := make(chan int)

	go func() {
		item, err := q.Pop(ctx)
		assert.NoError(t, err)
		popped <- item
	}()

	select {
	case <-popped:
		t.Fatal("pop returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Push(ctx, 42))
	assert.Equal(t, 42, <-popped)
}

func TestQueueCloseWakesConsumers(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int]()

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := q.Pop(ctx)
			assert.ErrorIs(t, err, queue.ErrClosed)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()
}

func TestQueuePopHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	q := queue.New[int]()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueBoundedPushBlocks(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int](queue.WithCapacity(1))

	require.NoError(t, q.Push(ctx, 1))

	pushed := make(chan error, 1)

	go func() {
		pushed <- q.Push(ctx, 2)
	}()

	select {
	case <-pushed:
		t.Fatal("push into a full queue returned without a pop")
	case <-time.After(20 * time.Millisecond):
	}

	item, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	require.NoError(t, <-pushed)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, q.Push(short, 3), context.DeadlineExceeded)
}

func TestQueueCloseUnblocksFullPush(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	q := queue.New[int](queue.WithCapacity(1))

	require.NoError(t, q.Push(ctx, 1))

	pushed := make(chan error, 1)

	go func() {
		pushed <- q.Push(ctx, 2)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	require.ErrorIs(t, <-pushed, queue.ErrClosed)
}
