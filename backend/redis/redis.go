// Package redis implements the herdcache backend contract on top of
// go-redis. The single-flight lock maps to SET NX PX, so acquisition is one
// atomic server-side step shared by every process talking to the same Redis.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	be "github.com/unkn0wn-root/herdcache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

// lock values carry no holder identity; release is scoped to a single fetch
// and the TTL bounds a crashed holder.
const lockMarker = "1"

// clearScanCount batches SCAN pages during namespace clears.
const clearScanCount = 256

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ be.Backend = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this backend exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return v, true, nil
}

func (b *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // non-positive TTL means "no expiry" per backend contract
	}
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b *Redis) Delete(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

func (b *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, key, lockMarker, ttl).Result()
}

func (b *Redis) Unlock(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

// Clear walks the keyspace with SCAN and deletes matches in pages. SCAN is
// cursor-based and does not block the server the way KEYS would.
func (b *Redis) Clear(ctx context.Context, prefix string) error {
	iter := b.rdb.Scan(ctx, 0, prefix+"*", clearScanCount).Iterator()
	batch := make([]string, 0, clearScanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := b.rdb.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= clearScanCount {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (b *Redis) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
