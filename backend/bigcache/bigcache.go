// Package bigcache adapts allegro/bigcache to the herdcache backend
// contract. Values live in BigCache; lock state lives in a process-local
// lock table, so single-flight holds only within one process. Suited to
// single-replica deployments or as an L1 in front of a shared store.
//
// BigCache has no per-entry TTL; every entry ages out with the configured
// LifeWindow regardless of the ttl passed to Set.
package bigcache

import (
	"context"
	"strings"
	"time"

	bc "github.com/allegro/bigcache/v3"

	be "github.com/unkn0wn-root/herdcache/backend"
	"github.com/unkn0wn-root/herdcache/internal/locktable"
)

type Backend struct {
	c     *bc.BigCache
	locks *locktable.Table
}

var _ be.Backend = (*Backend)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Backend, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Backend{c: c, locks: locktable.New()}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, err := b.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, false, nil
	}
	return v, err == nil, err
}

func (b *Backend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return b.c.Set(key, value)
}

func (b *Backend) Delete(_ context.Context, key string) error {
	if err := b.c.Delete(key); err != nil && err != bc.ErrEntryNotFound {
		return err
	}
	return nil
}

func (b *Backend) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return b.locks.TryAcquire(key, ttl), nil
}

func (b *Backend) Unlock(_ context.Context, key string) error {
	b.locks.Release(key)
	return nil
}

// Clear iterates the whole cache and deletes matching keys. BigCache cannot
// scope iteration, so this is O(entries); acceptable for an administrative
// operation.
func (b *Backend) Clear(_ context.Context, prefix string) error {
	it := b.c.Iterator()
	var doomed []string
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			return err
		}
		if strings.HasPrefix(info.Key(), prefix) {
			doomed = append(doomed, info.Key())
		}
	}
	for _, k := range doomed {
		if err := b.c.Delete(k); err != nil && err != bc.ErrEntryNotFound {
			return err
		}
	}
	return nil
}

func (b *Backend) Close(_ context.Context) error {
	return b.c.Close()
}
