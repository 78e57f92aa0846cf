package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rxportal/patientkit/pkg/kvstore"
)

// Client is the subset of redis.UniversalClient used by Store.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a kvstore.Store backed by Redis string keys.
type Store struct {
	db     Client
	prefix string
	ttl    time.Duration
}

// NewStore wraps client. Keys are stored as cfg.KeyPrefix+key with cfg.TTL.
func NewStore(client Client, cfg Config) *Store {
	return &Store{
		db:     client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", kvstore.ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kvstore.ErrNotFound
	}
	return val, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return kvstore.ErrEmptyKey
	}
	if err := s.db.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return errors.Join(kvstore.ErrWriteFailed, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return kvstore.ErrEmptyKey
	}
	if err := s.db.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(kvstore.ErrWriteFailed, err)
	}
	return nil
}
