package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", 0))
	require.NoError(t, store.Set(ctx, "b", "2", 0))
	require.NoError(t, store.Set(ctx, "c", "3", 0))

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound, "oldest entry should be evicted at capacity")
	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStoreListOps(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.ListAppend(ctx, "list", v))
	}

	all, err := store.ListRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, all)

	// keep the last two, Redis LTRIM semantics
	require.NoError(t, store.ListTrim(ctx, "list", -2, -1))
	all, err = store.ListRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, all)

	empty, err := store.ListRange(ctx, "nope", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreListExpire(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.ListAppend(ctx, "list", "a"))
	require.NoError(t, store.Expire(ctx, "list", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	vals, err := store.ListRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestMemoryStoreDeleteByPrefix(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cache:a:x", "1", 0))
	require.NoError(t, store.Set(ctx, "cache:a:y", "2", 0))
	require.NoError(t, store.Set(ctx, "cache:b:z", "3", 0))
	require.NoError(t, store.ListAppend(ctx, "cache:a:list", "v"))

	n, err := store.DeleteByPrefix(ctx, "cache:a:")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = store.Get(ctx, "cache:a:x")
	assert.ErrorIs(t, err, ErrNotFound)
	val, err := store.Get(ctx, "cache:b:z")
	require.NoError(t, err)
	assert.Equal(t, "3", val)
}

func TestMemoryStoreFlushAll(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.ListAppend(ctx, "list", "v"))
	require.NoError(t, store.FlushAll(ctx))

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	vals, err := store.ListRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestEngineOnMemoryStore(t *testing.T) {
	store, err := NewMemoryStore(100)
	require.NoError(t, err)
	engine := NewEngine(store, &stubEmbedder{}, engineConfig())
	ctx := context.Background()

	engine.Store(ctx, "prompt", "m", chatResponse("answer"))
	match, ok := engine.Lookup(ctx, "prompt", "m")
	require.True(t, ok)
	assert.Equal(t, "answer", match.Response.Content)
}
