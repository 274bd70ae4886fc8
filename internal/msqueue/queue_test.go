package msqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestQueue_PushPop(t *testing.T) {
	q := New[int]()

	_, ok := q.TryPopIf(func(int) bool { return true })
	require.False(t, ok)

	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, ok := q.TryPopIf(func(int) bool { return true })
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = q.TryPopIf(func(int) bool { return true })
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestQueue_TryPopIf_FalsePredicateLeavesQueueUntouched(t *testing.T) {
	q := New[int]()
	q.Push(10)

	_, ok := q.TryPopIf(func(v int) bool { return v > 100 })
	require.False(t, ok)

	v, ok := q.TryPopIf(func(int) bool { return true })
	require.True(t, ok)
	require.Equal(t, 10, v)
}

func TestQueue_Drain(t *testing.T) {
	q := New[int]()
	for i := range 5 {
		q.Push(i)
	}
	got := q.Drain()
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
	require.Empty(t, q.Drain())
}

func TestQueue_ConcurrentPushPop(t *testing.T) {
	q := New[int]()
	const n = 200
	const producers = 8

	var g errgroup.Group
	for p := range producers {
		p := p
		g.Go(func() error {
			for i := range n {
				q.Push(p*n + i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int]bool)
	var mu sync.Mutex
	var consumers errgroup.Group
	for range producers {
		consumers.Go(func() error {
			for {
				v, ok := q.TryPopIf(func(int) bool { return true })
				if !ok {
					return nil
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		})
	}
	require.NoError(t, consumers.Wait())

	// draining after all consumers stop must find nothing left behind, and
	// every pushed value must have been observed exactly once.
	require.Empty(t, q.Drain())
	require.Len(t, seen, n*producers)
}
