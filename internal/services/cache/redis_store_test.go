package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreMissMapsToErrNotFound(t *testing.T) {
	_, store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreSetGetWithTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreListPairExpiry(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ListAppend(ctx, "list", "id-1"))
	require.NoError(t, store.Expire(ctx, "list", time.Minute))

	mr.FastForward(2 * time.Minute)
	vals, err := store.ListRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestRedisStoreDeleteByPrefix(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cache:a:1", "x", 0))
	require.NoError(t, store.Set(ctx, "cache:a:2", "y", 0))
	require.NoError(t, store.Set(ctx, "cache:b:1", "z", 0))

	n, err := store.DeleteByPrefix(ctx, "cache:a:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Get(ctx, "cache:a:1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "cache:b:1")
	assert.NoError(t, err)
}

func TestRedisStoreFailureWrapsSentinel(t *testing.T) {
	mr, store := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	err = store.Set(context.Background(), "k", "v", 0)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}
