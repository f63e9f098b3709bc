// Package ristretto adapts dgraph-io/ristretto to the herdcache backend
// contract. Values live in Ristretto with len(value) as cost; lock state
// lives in a process-local lock table, so single-flight holds only within
// one process.
//
// Ristretto cannot enumerate its keys, so Clear reports
// backend.ErrClearUnsupported.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	be "github.com/unkn0wn-root/herdcache/backend"
	"github.com/unkn0wn-root/herdcache/internal/locktable"
)

type Backend struct {
	c     *rc.Cache
	locks *locktable.Table
}

var _ be.Backend = (*Backend)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Backend, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto backend: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{c: c, locks: locktable.New()}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, _ := v.([]byte)
	if raw == nil {
		// self-heal: drop unexpected entry shape
		b.c.Del(key)
		return nil, false, nil
	}
	return raw, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// Ristretto may drop the write under pressure; the cache layer treats
	// the next miss as a recompute, so that is fine.
	if ttl > 0 {
		b.c.SetWithTTL(key, value, int64(len(value)), ttl)
	} else {
		b.c.Set(key, value, int64(len(value)))
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.c.Del(key)
	return nil
}

func (b *Backend) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return b.locks.TryAcquire(key, ttl), nil
}

func (b *Backend) Unlock(_ context.Context, key string) error {
	b.locks.Release(key)
	return nil
}

func (b *Backend) Clear(_ context.Context, _ string) error {
	return be.ErrClearUnsupported
}

func (b *Backend) Close(_ context.Context) error {
	b.c.Wait()
	b.c.Close()
	return nil
}

// Metrics exposes ristretto's own counters (not part of the backend
// contract).
func (b *Backend) Metrics() *rc.Metrics { return b.c.Metrics }
