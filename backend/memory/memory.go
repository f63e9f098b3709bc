// Package memory implements the herdcache backend contract with in-process
// maps. It is the reference implementation: tests run against it, and it
// doubles as a degraded-mode fallback when no shared store is reachable.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/herdcache/backend"
	"github.com/unkn0wn-root/herdcache/internal/locktable"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero => no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store keeps values and locks in two maps. Expiry is lazy: a read past the
// expiry instant evicts and reports a miss, so the optional sweep loop is
// memory hygiene, not a correctness requirement.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	locks *locktable.Table

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ backend.Backend = (*Store)(nil)

// New creates a Store. A positive sweepInterval starts a background janitor
// dropping expired values and locks; 0 disables it.
func New(sweepInterval time.Duration) *Store {
	s := &Store{
		items: make(map[string]entry),
		locks: locktable.New(),
	}
	if sweepInterval > 0 {
		s.ticker = time.NewTicker(sweepInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		s.mu.Lock()
		// re-check under the write lock; a fresh Set may have replaced it
		if cur, ok := s.items[key]; ok && cur.expired(time.Now()) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.items[key] = entry{value: cp, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.locks.TryAcquire(key, ttl), nil
}

func (s *Store) Unlock(_ context.Context, key string) error {
	s.locks.Release(key)
	return nil
}

func (s *Store) Clear(_ context.Context, prefix string) error {
	s.mu.Lock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
	return nil
}

// Sweep drops expired values and locks.
func (s *Store) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for k, e := range s.items {
		if e.expired(now) {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
	s.locks.Sweep()
}

// Len reports the number of live (possibly expired, not yet swept) values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}
