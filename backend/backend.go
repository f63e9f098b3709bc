// Package backend defines the storage abstraction used by herdcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). If a store
// performs internal transforms (e.g., compression), they MUST be fully
// reversed so that the bytes returned by Get are identical to the bytes
// provided to Set.
//
// Important: the keyspaces "lock:" and "stale:" under a handler's namespace
// are owned by herdcache. External code MUST NOT write values under these
// prefixes.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrClearUnsupported is returned by Clear when the store cannot enumerate
// and remove keys by prefix. Callers match it with errors.Is.
var ErrClearUnsupported = errors.New("backend: clear namespace unsupported")

// Backend is a byte store with TTLs and a per-key advisory lock. It must be
// safe for concurrent use.
//
// Absence is a first-class outcome: Get reports it through its ok result,
// never through a sentinel value, so empty payloads round-trip correctly.
type Backend interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// TryLock attempts to acquire the advisory lock at key for at most ttl.
	// The check-and-set must be one atomic step: of any number of concurrent
	// callers for the same key, at most one may observe acquired=true while
	// an unexpired holder exists. The ttl bounds how long a crashed holder
	// can block others; an entry past its ttl is treated as absent.
	TryLock(ctx context.Context, key string, ttl time.Duration) (acquired bool, err error)

	// Unlock releases the advisory lock at key. Releasing an absent or
	// already-released lock is not an error.
	Unlock(ctx context.Context, key string) error

	// Clear removes every key starting with prefix. Stores that cannot
	// enumerate keys return ErrClearUnsupported.
	Clear(ctx context.Context, prefix string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
