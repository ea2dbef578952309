package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/keuringen-be/internal/adapters/redis_adapter"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	type row struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	t.Run("stores_and_retrieves_struct_slice", func(t *testing.T) {
		in := []row{{ID: "1", Name: "Kerkstraat"}, {ID: "2", Name: "Stationsstraat"}}
		require.NoError(t, cache.Set(ctx, "test:rows", in))

		var out []row
		require.NoError(t, cache.Get(ctx, "test:rows", &out))
		assert.Equal(t, in, out)
	})

	t.Run("uses_default_ttl", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "test:ttl", "x"))
		assert.Equal(t, 5*time.Minute, mr.TTL("test:ttl"))
	})

	t.Run("missing_key_is_cache_miss", func(t *testing.T) {
		var out string
		err := cache.Get(ctx, "test:missing", &out)
		assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})

	t.Run("expired_key_is_cache_miss", func(t *testing.T) {
		require.NoError(t, cache.SetWithTTL(ctx, "test:short", "x", time.Second))
		mr.FastForward(2 * time.Second)

		var out string
		assert.ErrorIs(t, cache.Get(ctx, "test:short", &out), redis_a.ErrCacheMiss)
	})
}

func TestCache_GetDel(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.Set(ctx, "once", "value"))

	var out string
	require.NoError(t, cache.GetDel(ctx, "once", &out))
	assert.Equal(t, "value", out)
	assert.False(t, mr.Exists("once"))

	assert.ErrorIs(t, cache.GetDel(ctx, "once", &out), redis_a.ErrCacheMiss)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.Set(ctx, "keur:list", 1))
	require.NoError(t, cache.Set(ctx, "keur:item:1", 1))
	require.NoError(t, cache.Set(ctx, "export:abc", 1))

	require.NoError(t, cache.DeletePattern(ctx, "keur:*"))

	assert.False(t, mr.Exists("keur:list"))
	assert.False(t, mr.Exists("keur:item:1"))
	assert.True(t, mr.Exists("export:abc"))

	t.Run("no_matches_is_not_an_error", func(t *testing.T) {
		assert.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
	})
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	var first []string
	require.NoError(t, cache.GetOrSet(ctx, "gos", &first, fetch, time.Minute))
	assert.Equal(t, []string{"a", "b"}, first)

	var second []string
	require.NoError(t, cache.GetOrSet(ctx, "gos", &second, fetch, time.Minute))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	t.Run("fetch_error_is_wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		var out []string
		err := cache.GetOrSet(ctx, "gos:err", &out, func() (interface{}, error) {
			return nil, boom
		}, time.Minute)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCache_SetNXAndExists(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	ok, err := cache.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := cache.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = cache.Exists(ctx, "lock", "other")
	require.NoError(t, err)
	assert.False(t, exists)

	ttl, err := cache.TTL(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestCache_Ping(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "keur", redis_a.BuildKey(redis_a.PrefixInspections))
	assert.Equal(t, "keur:list:all", redis_a.BuildKey(redis_a.PrefixInspections, "list", "all"))
}
