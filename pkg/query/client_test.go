package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxportal/patientkit/pkg/query"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClient(t *testing.T, cfg query.Config) (*query.Client, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := query.New(cfg, query.WithClock(clk.Now))
	t.Cleanup(c.Close)
	return c, clk
}

func testConfig() query.Config {
	return query.Config{
		Retries:      2,
		RetryBackoff: time.Millisecond,
		StaleTime:    5 * time.Minute,
		GCTime:       10 * time.Minute,
	}
}

func counter(value string) (func(context.Context) (string, error), *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}, &calls
}

func TestFetch_Caching(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh value is served from cache", func(t *testing.T) {
		c, clk := newClient(t, testConfig())
		fn, calls := counter("v1")

		v, err := query.Fetch(ctx, c, "dashboard", fn)
		require.NoError(t, err)
		assert.Equal(t, "v1", v)

		clk.Advance(4 * time.Minute)
		v, err = query.Fetch(ctx, c, "dashboard", fn)
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("stale value is refetched", func(t *testing.T) {
		c, clk := newClient(t, testConfig())
		fn, calls := counter("v1")

		_, err := query.Fetch(ctx, c, "dashboard", fn)
		require.NoError(t, err)
		clk.Advance(5 * time.Minute)
		_, err = query.Fetch(ctx, c, "dashboard", fn)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("invalidate and clear", func(t *testing.T) {
		c, _ := newClient(t, testConfig())
		fn, calls := counter("v1")

		_, _ = query.Fetch(ctx, c, "a", fn)
		_, _ = query.Fetch(ctx, c, "b", fn)
		assert.Equal(t, 2, c.Len())

		c.Invalidate("a")
		assert.Equal(t, 1, c.Len())
		_, _ = query.Fetch(ctx, c, "a", fn)
		assert.Equal(t, int32(3), calls.Load())

		c.Clear()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("type mismatch", func(t *testing.T) {
		c, _ := newClient(t, testConfig())
		_, err := query.Fetch(ctx, c, "k", func(context.Context) (string, error) { return "s", nil })
		require.NoError(t, err)

		_, err = query.Fetch(ctx, c, "k", func(context.Context) (int, error) { return 1, nil })
		assert.ErrorIs(t, err, query.ErrTypeMismatch)
	})
}

func TestFetch_Retries(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers within retry budget", func(t *testing.T) {
		c, _ := newClient(t, testConfig())
		var calls atomic.Int32
		v, err := query.Fetch(ctx, c, "k", func(context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after retries", func(t *testing.T) {
		c, _ := newClient(t, testConfig())
		boom := errors.New("down")
		var calls atomic.Int32
		_, err := query.Fetch(ctx, c, "k", func(context.Context) (string, error) {
			calls.Add(1)
			return "", boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
		assert.Equal(t, 0, c.Len())
	})

	t.Run("stale value is not used as fallback", func(t *testing.T) {
		c, clk := newClient(t, testConfig())
		_, err := query.Fetch(ctx, c, "k", func(context.Context) (string, error) { return "old", nil })
		require.NoError(t, err)
		clk.Advance(time.Hour)

		_, err = query.Fetch(ctx, c, "k", func(context.Context) (string, error) { return "", errors.New("down") })
		assert.Error(t, err)
	})

	t.Run("context errors are not retried", func(t *testing.T) {
		c, _ := newClient(t, testConfig())
		var calls atomic.Int32
		_, err := query.Fetch(ctx, c, "k", func(context.Context) (string, error) {
			calls.Add(1)
			return "", context.DeadlineExceeded
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestFetch_Deduplicates(t *testing.T) {
	c, _ := newClient(t, testConfig())
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := query.Fetch(context.Background(), c, "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestFetch_ClearDuringFetch(t *testing.T) {
	c, _ := newClient(t, testConfig())
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = query.Fetch(context.Background(), c, "k", func(context.Context) (string, error) {
			close(started)
			<-release
			return "belongs to previous user", nil
		})
	}()

	<-started
	c.Clear()
	close(release)
	<-done

	assert.Equal(t, 0, c.Len(), "results of fetches started before Clear are not cached")
}

func TestCollect(t *testing.T) {
	c, clk := newClient(t, testConfig())
	fn, _ := counter("v")

	_, _ = query.Fetch(context.Background(), c, "old", fn)
	clk.Advance(6 * time.Minute)
	_, _ = query.Fetch(context.Background(), c, "new", fn)
	clk.Advance(5 * time.Minute)

	assert.Equal(t, 1, c.Collect())
	assert.Equal(t, 1, c.Len())
}

func TestClose(t *testing.T) {
	c := query.New(testConfig())
	c.Close()
	c.Close()

	_, err := query.Fetch(context.Background(), c, "k", func(context.Context) (string, error) { return "v", nil })
	assert.ErrorIs(t, err, query.ErrClosed)
}

func TestFetch_CallerCancelDoesNotFailOthers(t *testing.T) {
	c, _ := newClient(t, testConfig())
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "shared", nil
	}

	first, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	var firstErr, secondErr error
	var second string
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = query.Fetch(first, c, "k", fn)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		second, secondErr = query.Fetch(context.Background(), c, "k", fn)
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(release)
	wg.Wait()

	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.Equal(t, "shared", second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}
