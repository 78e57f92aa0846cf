package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rxportal/patientkit/pkg/kvstore"
)

const (
	selectValueSQL = `SELECT value FROM kv_store WHERE key = $1`
	upsertValueSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteValueSQL = `DELETE FROM kv_store WHERE key = $1`
)

// Querier is the subset of *pgxpool.Pool used by Store.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a kvstore.Store over the kv_store table created by Migrate.
type Store struct {
	db Querier
}

// NewStore wraps db.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", kvstore.ErrEmptyKey
	}
	var value string
	if err := s.db.QueryRow(ctx, selectValueSQL, key).Scan(&value); err != nil {
		if IsNotFoundError(err) {
			return "", kvstore.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return kvstore.ErrEmptyKey
	}
	if _, err := s.db.Exec(ctx, upsertValueSQL, key, value); err != nil {
		return errors.Join(kvstore.ErrWriteFailed, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return kvstore.ErrEmptyKey
	}
	if _, err := s.db.Exec(ctx, deleteValueSQL, key); err != nil {
		return errors.Join(kvstore.ErrWriteFailed, err)
	}
	return nil
}
