package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to REDIS_ADDR, skipping when no server is configured.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store, err := New(context.Background(), Options{
		Addr:   addr,
		Prefix: "storefront-test:" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "user", []byte(`{"users":[]}`)))
	value, found, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"users":[]}`, string(value))

	require.NoError(t, store.Delete(ctx, "user"))
	require.NoError(t, store.Delete(ctx, "user"))
	_, found, err = store.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeyPrefix(t *testing.T) {
	s := &Store{prefix: "shop:"}
	assert.Equal(t, "shop:contactMessages", s.key("contactMessages"))
}
