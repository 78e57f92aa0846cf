package statefeed

import (
	"context"
	"sync"
)

// Subscription receives published values until closed.
type Subscription[T any] interface {
	// C returns the channel of values. It is closed when the subscription ends.
	C() <-chan T
	// Close ends the subscription. Safe to call multiple times.
	Close()
}

// Feed is a latest-value broadcaster. All methods are safe for concurrent use.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	last   T
	has    bool
	closed bool
	wg     sync.WaitGroup
}

// New creates an empty feed.
func New[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Publish records v as the latest value and offers it to every subscriber.
// It never blocks. Publishing to a closed feed is a no-op.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.last, f.has = v, true
	for s := range f.subs {
		s.offer(v)
	}
}

// Latest returns the last published value and whether there was one.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.has
}

// Subscribe registers a subscriber that ends when ctx is done, when Close is
// called on it or when the feed closes. Subscribing to a closed feed returns
// an already-closed subscription.
func (f *Feed[T]) Subscribe(ctx context.Context) Subscription[T] {
	s := &subscriber[T]{ch: make(chan T, 1)}
	s.remove = func() { f.unsubscribe(s) }

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		s.close()
		return s
	}

	f.subs[s] = struct{}{}
	if f.has {
		s.offer(f.last)
	}

	if ctx.Done() != nil {
		s.done = make(chan struct{})
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			select {
			case <-ctx.Done():
				f.unsubscribe(s)
			case <-s.done:
			}
		}()
	}

	return s
}

// Len returns the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription. Later Publish calls are ignored.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	for s := range f.subs {
		s.close()
	}
	clear(f.subs)
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *Feed[T]) unsubscribe(s *subscriber[T]) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
	s.close()
}

type subscriber[T any] struct {
	mu     sync.Mutex
	ch     chan T
	done   chan struct{}
	closed bool
	remove func()
}

func (s *subscriber[T]) C() <-chan T { return s.ch }

func (s *subscriber[T]) Close() { s.remove() }

// offer replaces any pending value with v.
func (s *subscriber[T]) offer(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	if s.done != nil {
		close(s.done)
	}
}
