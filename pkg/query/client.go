package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/rxportal/patientkit/pkg/logger"
)

type entry struct {
	value     any
	fetchedAt time.Time
	usedAt    time.Time
}

// Client is a keyed result cache. Safe for concurrent use.
type Client struct {
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	// generation changes on Invalidate and Clear so in-flight fetches do not
	// repopulate dropped entries.
	generation map[string]uint64
	epoch      uint64
	closed     bool

	stop chan struct{}
	done chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for retry and eviction messages.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client and starts its eviction loop when cfg.GCTime > 0.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		now:        time.Now,
		entries:    make(map[string]*entry),
		generation: make(map[string]uint64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	c.log = c.log.With(logger.Component("query"))

	if cfg.GCTime > 0 {
		go c.gcLoop(cfg.GCTime / 2)
	} else {
		close(c.done)
	}
	return c
}

// Fetch returns the cached value for key, or calls fn to obtain it.
// On failure the error is returned even if a stale value exists.
// Cancelling ctx does not abort a fetch that is already running.
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok, err := lookup[T](c, key); err != nil || ok {
		return v, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	gen := c.epoch + c.generation[key]
	c.mu.Unlock()

	// The fetch is shared by every caller that joins it, so one caller giving
	// up must not fail the others.
	shared := context.WithoutCancel(ctx)
	res, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		v, err := c.fetchWithRetry(shared, key, func(ctx context.Context) (any, error) { return fn(ctx) })
		if err != nil {
			return nil, err
		}
		c.store(key, gen, v)
		return v, nil
	})
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return v, nil
}

func lookup[T any](c *Client, key string) (T, bool, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return zero, false, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return zero, false, nil
	}
	now := c.now()
	e.usedAt = now
	if c.cfg.StaleTime <= 0 || now.Sub(e.fetchedAt) >= c.cfg.StaleTime {
		return zero, false, nil
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false, ErrTypeMismatch
	}
	return v, true, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	var (
		result  any
		attempt int
	)
	backoff := retry.WithMaxRetries(uint64(max(c.cfg.Retries, 0)), retry.NewExponential(max(c.cfg.RetryBackoff, time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.DebugContext(ctx, "query attempt failed",
				logger.Key(key),
				logger.RetryCount(attempt),
				logger.Error(err),
			)
			return retry.RetryableError(err)
		}
		result = v
		return nil
	})
	return result, err
}

func (c *Client) store(key string, gen uint64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.epoch+c.generation[key] != gen {
		return
	}
	now := c.now()
	c.entries[key] = &entry{value: v, fetchedAt: now, usedAt: now}
}

// Invalidate drops key so the next Fetch calls the fetcher.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.generation[key]++
}

// Clear drops every entry.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.epoch++
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the eviction loop and drops every entry.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	clear(c.entries)
	c.mu.Unlock()

	close(c.stop)
	<-c.done
}

// Collect evicts entries unused for longer than GCTime and returns how many were removed.
func (c *Client) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.GCTime <= 0 {
		return 0
	}
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.usedAt) > c.cfg.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Client) gcLoop(interval time.Duration) {
	defer close(c.done)

	t := time.NewTicker(max(interval, time.Second))
	defer t.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			if n := c.Collect(); n > 0 {
				c.log.Debug("evicted unused query results", slog.Int("count", n))
			}
		}
	}
}
