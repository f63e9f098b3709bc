// Package locktable implements a mutex-protected map of TTL-bounded advisory
// locks. Local backends (memory, bigcache, ristretto) share it for their
// TryLock/Unlock semantics; it is only meaningful within one process.
package locktable

import (
	"sync"
	"time"
)

type Table struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry instant
}

func New() *Table {
	return &Table{locks: make(map[string]time.Time)}
}

// TryAcquire installs a lock for key expiring at now+ttl. The check and the
// insert happen in one critical section: of concurrent callers for the same
// key, at most one acquires while an unexpired entry exists. An entry past
// its expiry is treated as absent even if not yet swept.
func (t *Table) TryAcquire(key string, ttl time.Duration) bool {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	if exp, ok := t.locks[key]; ok && now.Before(exp) {
		return false
	}
	t.locks[key] = now.Add(ttl)
	return true
}

// Release drops the lock for key. Releasing an absent lock is a no-op.
func (t *Table) Release(key string) {
	t.mu.Lock()
	delete(t.locks, key)
	t.mu.Unlock()
}

// Sweep drops expired entries. Memory hygiene only; TryAcquire is correct
// without it.
func (t *Table) Sweep() {
	now := time.Now()
	t.mu.Lock()
	for k, exp := range t.locks {
		if now.After(exp) {
			delete(t.locks, k)
		}
	}
	t.mu.Unlock()
}
