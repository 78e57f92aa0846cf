package kvstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxportal/patientkit/pkg/kvstore"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key returns not found", func(t *testing.T) {
		store := kvstore.NewMemoryStore()

		_, err := store.Get(ctx, "user")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		store := kvstore.NewMemoryStore()

		require.NoError(t, store.Set(ctx, "user", "value"))

		v, err := store.Get(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, "value", v)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("set overwrites", func(t *testing.T) {
		store := kvstore.NewMemoryStore()

		require.NoError(t, store.Set(ctx, "user", "a"))
		require.NoError(t, store.Set(ctx, "user", "b"))

		v, err := store.Get(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		assert.ErrorIs(t, store.Set(ctx, "", "v"), kvstore.ErrEmptyKey)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "user", "a"))

		require.NoError(t, store.Delete(ctx, "user"))
		require.NoError(t, store.Delete(ctx, "user"))

		_, err := store.Get(ctx, "user")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		var wg sync.WaitGroup

		for i := range 50 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = store.Set(ctx, "k", "v")
				_, _ = store.Get(ctx, "k")
				if i%2 == 0 {
					_ = store.Delete(ctx, "k")
				}
			}(i)
		}
		wg.Wait()
	})
}
