package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetshop/internal/pkg/cache"
)

func setupCache(t *testing.T) (cache.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisClient_SetGetDelete(t *testing.T) {
	client, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "sweet:1", `{"id":"1"}`, time.Minute))

	val, err := client.Get(ctx, "sweet:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, val)

	require.NoError(t, client.Delete(ctx, "sweet:1", "sweet:missing"))

	_, err = client.Get(ctx, "sweet:1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisClient_IncrAndExpire(t *testing.T) {
	client, mr := setupCache(t)
	ctx := context.Background()

	n, err := client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, client.Expire(ctx, "counter", time.Second))
	mr.FastForward(2 * time.Second)

	_, err = client.Get(ctx, "counter")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestNewRedisClient_ConnectionFailure(t *testing.T) {
	_, err := cache.NewRedisClient("127.0.0.1:1")
	assert.Error(t, err)
}

func TestRedisClient_IncrWindow(t *testing.T) {
	client, mr := setupCache(t)
	ctx := context.Background()

	n, err := client.IncrWindow(ctx, "rate-limit:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, mr.TTL("rate-limit:10.0.0.1"))

	// O segundo incremento não renova a janela.
	mr.FastForward(30 * time.Second)
	n, err = client.IncrWindow(ctx, "rate-limit:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 30*time.Second, mr.TTL("rate-limit:10.0.0.1"))
}

func TestRedisClient_IncrWindowRestoresMissingTTL(t *testing.T) {
	client, mr := setupCache(t)
	ctx := context.Background()

	// Contador sem TTL, como fica após um EXPIRE que falhou.
	require.NoError(t, mr.Set("rate-limit:10.0.0.2", "7"))
	require.Zero(t, mr.TTL("rate-limit:10.0.0.2"))

	n, err := client.IncrWindow(ctx, "rate-limit:10.0.0.2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, time.Minute, mr.TTL("rate-limit:10.0.0.2"))
}
