package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetCallsLoaderOncePerKeyUnderConcurrency(t *testing.T) {
	c := New[int]()
	var calls int32

	load := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "key", time.Minute, load)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, calls)
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestGetExpiresByTTL(t *testing.T) {
	c := New[int]()
	var calls int32
	load := func(ctx context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		return int(n), nil
	}

	v1, err := c.Get(context.Background(), "k", time.Millisecond, load)
	require.NoError(t, err)
	require.Equal(t, 1, v1)

	time.Sleep(5 * time.Millisecond)

	v2, err := c.Get(context.Background(), "k", time.Millisecond, load)
	require.NoError(t, err)
	require.Equal(t, 2, v2)
}

func TestGetDoesNotCacheFailure(t *testing.T) {
	c := New[int]()
	boom := errors.New("boom")
	load := func(ctx context.Context) (int, error) {
		return 0, boom
	}

	_, err := c.Get(context.Background(), "k", time.Minute, load)
	require.ErrorIs(t, err, boom)

	_, err = c.Get(context.Background(), "k", time.Minute, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
}
