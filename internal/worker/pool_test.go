package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPool_ExecuteKeepsOrder(t *testing.T) {
	inputs := []int{5, 1, 4, 2, 3}
	pool := NewPool(3, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), inputs)
	require.Len(t, tasks, len(inputs))
	for i, task := range tasks {
		require.NoError(t, task.Err)
		require.Equal(t, inputs[i], task.Input)
		require.Equal(t, inputs[i]*inputs[i], task.Result)
	}
}

func TestPool_ExecuteRecordsFailures(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool(2, func(_ context.Context, n int) (string, error) {
		if n%2 == 0 {
			return "", boom
		}
		return "ok", nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4})
	require.NoError(t, tasks[0].Err)
	require.ErrorIs(t, tasks[1].Err, boom)
	require.NoError(t, tasks[2].Err)
	require.ErrorIs(t, tasks[3].Err, boom)
	require.Equal(t, "ok", tasks[2].Result)
}

func TestPool_ExecuteRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	pool := NewPool(2, func(_ context.Context, _ int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	})

	pool.Execute(context.Background(), make([]int, 10))
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_ExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	pool := NewPool(4, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	tasks := pool.Execute(ctx, []int{1, 2, 3})
	require.Zero(t, calls.Load())
	for _, task := range tasks {
		require.ErrorIs(t, task.Err, context.Canceled)
	}
}

func TestPool_Run(t *testing.T) {
	pool := NewPool(0, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})
	got, err := pool.Run(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)

	failing := NewPool(2, func(_ context.Context, s string) (int, error) {
		if s == "bad" {
			return 0, errors.New("bad input")
		}
		return 1, nil
	})
	_, err = failing.Run(context.Background(), []string{"a", "bad", "c"})
	require.EqualError(t, err, "bad input")

	empty, err := pool.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestBatch(t *testing.T) {
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	require.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	require.Nil(t, Batch([]int{}, 3))
}
