package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b, err := New(Config{Client: client, CloseClient: true})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = b.Close(context.Background())
		mr.Close()
	})
	return b, mr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestGetMissVsHit(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("present", "value"))
	v, ok, err := b.Get(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestSetHonorsTTL(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire with TTL")
}

func TestSetZeroTTLMeansNoExpiry(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))
	mr.FastForward(24 * time.Hour)
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryLockIsExclusiveUntilTTL(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	ok, err := b.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire while held must fail")

	// A crashed holder is unblocked by the TTL.
	mr.FastForward(2 * time.Minute)
	ok, err = b.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockIdempotent(t *testing.T) {
	b, _ := setupBackend(t)
	ctx := context.Background()

	ok, err := b.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Unlock(ctx, "lock:k"))
	require.NoError(t, b.Unlock(ctx, "lock:k"))

	ok, err = b.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be free after release")
}

func TestDeleteIdempotent(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("k", "v"))
	require.NoError(t, b.Delete(ctx, "k"))
	require.NoError(t, b.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestClearRemovesOnlyPrefix(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("app:v1:a", "1"))
	require.NoError(t, mr.Set("app:v1:b", "2"))
	require.NoError(t, mr.Set("app:v2:a", "3"))

	require.NoError(t, b.Clear(ctx, "app:v1:"))
	assert.False(t, mr.Exists("app:v1:a"))
	assert.False(t, mr.Exists("app:v1:b"))
	assert.True(t, mr.Exists("app:v2:a"))
}

func TestClearManyKeysBatches(t *testing.T) {
	b, mr := setupBackend(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, mr.Set("bulk:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, b.Clear(ctx, "bulk:"))
	assert.Empty(t, mr.Keys())
}
