package session_test

import (
	"context"
	"errors"
	"sync"

	"github.com/rxportal/patientkit/pkg/kvstore"
)

var errDiskFull = errors.New("disk full")

// faultyStore wraps a MemoryStore and fails selected operations.
type faultyStore struct {
	*kvstore.MemoryStore

	mu        sync.Mutex
	getErr    error
	setErr    error
	deleteErr error
	calls     []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: kvstore.NewMemoryStore()}
}

func (s *faultyStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
}

func (s *faultyStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *faultyStore) Get(ctx context.Context, key string) (string, error) {
	s.record("get")
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *faultyStore) Set(ctx context.Context, key, value string) error {
	s.record("set")
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *faultyStore) Delete(ctx context.Context, key string) error {
	s.record("delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

// cancelAwareStore fails every operation whose context is already done,
// like a network-backed store would.
type cancelAwareStore struct {
	*kvstore.MemoryStore
}

func (s cancelAwareStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s cancelAwareStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s cancelAwareStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, key)
}
