package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/herdcache"
	"github.com/unkn0wn-root/herdcache/backend/redis"
	"github.com/unkn0wn-root/herdcache/codec"
)

// Full fetch path over a real Redis wire protocol: two handlers sharing one
// store behave like two replicas of the same service.
func TestFetchSingleFlightAcrossHandlers(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	newHandler := func() herdcache.Cache[string] {
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		b, err := redis.New(redis.Config{Client: client, CloseClient: true})
		require.NoError(t, err)
		cc, err := herdcache.New[string](herdcache.Options[string]{
			Backend: b,
			Codec:   codec.String{},
			Prefix:  "app",
			Version: "v1",
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = cc.Close(context.Background()) })
		return cc
	}

	a, b := newHandler(), newHandler()
	ctx := context.Background()

	var calls int64
	origin := func(context.Context) (string, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(60 * time.Millisecond)
		return "computed", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	for i, h := range []herdcache.Cache[string]{a, b} {
		wg.Add(1)
		go func(i int, h herdcache.Cache[string]) {
			defer wg.Done()
			results[i], errs[i] = h.Fetch(ctx, "posts", origin)
		}(i, h)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, "computed", results[0])
	assert.Equal(t, "computed", results[1])
	assert.EqualValues(t, 1, calls, "exactly one replica should hit the origin")

	// The winner must have released its lock.
	assert.False(t, mr.Exists("lock:app:v1:posts"))
}

func TestFetchHitAfterWarmup(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b, err := redis.New(redis.Config{Client: client, CloseClient: true})
	require.NoError(t, err)
	cc, err := herdcache.New[string](herdcache.Options[string]{
		Backend: b,
		Codec:   codec.String{},
		Prefix:  "app",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close(context.Background()) })

	ctx := context.Background()
	var calls int64
	origin := func(context.Context) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "v", nil
	}

	_, err = cc.Fetch(ctx, "k", origin, herdcache.WithTTL(time.Minute))
	require.NoError(t, err)

	got, err := cc.Fetch(ctx, "k", origin)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.EqualValues(t, 1, calls)
	assert.True(t, mr.Exists("app:k"))
}
