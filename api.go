package herdcache

import (
	"context"
	"time"

	be "github.com/unkn0wn-root/herdcache/backend"
	c "github.com/unkn0wn-root/herdcache/codec"
)

// OriginFunc computes the value for a missing key. It may take arbitrarily
// long; the cache never cancels it (the lock TTL only bounds how long other
// callers wait, not the winner's own work). An origin that supports
// cancellation should honor ctx itself.
type OriginFunc[V any] func(ctx context.Context) (V, error)

// Entry is one item for bulk pre-population.
type Entry[V any] struct {
	Key   string
	Value V
	TTL   time.Duration // 0 => handler default
}

// Cache is the high-level, backend-agnostic fetch-or-compute API with
// single-flight stampede protection. V is the caller's value type;
// serialization is handled by a pluggable Codec[V].
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Fetch returns the cached value for key, or runs origin under a
	// distributed per-key lock and caches the result. Concurrent callers
	// for the same missing key share one origin call: the lock winner
	// computes, the rest poll for the published value.
	Fetch(ctx context.Context, key string, origin OriginFunc[V], opts ...FetchOption) (V, error)

	// Populate writes entries directly via the backend, bypassing the
	// lock/origin path entirely (pre-population is not fetching).
	Populate(ctx context.Context, entries []Entry[V]) error

	// Invalidate removes the primary and stale entries for key.
	Invalidate(ctx context.Context, key string) error

	// Clear removes every key in the handler's namespace, including lock
	// and stale derivatives. Fails with *ConfigError on a namespace-less
	// handler and with backend.ErrClearUnsupported when the store cannot
	// enumerate keys.
	Clear(ctx context.Context) error

	// Key returns the full storage key for a logical key.
	Key(logical string) string
}

// Options tune a handler. Only Backend and Codec are required; everything
// else has defaults. Handlers are immutable after construction.
type Options[V any] struct {
	// Required
	Backend be.Backend
	Codec   c.Codec[V]

	Prefix  string // namespace segment, e.g. app name; default none
	Version string // second namespace segment, e.g. "v1"; default none

	// Fallback enables the stale-value safety net: every successful origin
	// call also writes a longer-lived stale copy, served when the primary
	// entry is gone and a recompute fails.
	Fallback bool

	Reporter Reporter // nil => NopReporter
	Logger   Logger   // nil => NopLogger

	DefaultTTL  time.Duration // primary entries; 0 => 5m
	LockTimeout time.Duration // lock TTL and waiter budget; 0 => 5s
	StaleTTL    time.Duration // stale copies; 0 => 1h

	// Disabled short-circuits the handler: Fetch calls origin directly and
	// no cache or lock traffic happens.
	Disabled bool

	// LocalFlight additionally collapses concurrent in-process Fetch calls
	// for the same key before any backend round-trip. Pure latency
	// optimization; leave off if you want per-caller event streams.
	LocalFlight bool
}

// New builds a Cache handler from opts.
func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}

type fetchConfig struct {
	ttl         time.Duration
	lockTimeout time.Duration
	staleTTL    time.Duration
	fallback    bool
}

// FetchOption overrides one per-call knob, merged over the handler defaults.
type FetchOption func(*fetchConfig)

// WithTTL sets the primary entry TTL for this call.
func WithTTL(d time.Duration) FetchOption {
	return func(fc *fetchConfig) { fc.ttl = d }
}

// WithLockTimeout bounds both the lock TTL and how long a losing caller
// waits for the winner's value.
func WithLockTimeout(d time.Duration) FetchOption {
	return func(fc *fetchConfig) { fc.lockTimeout = d }
}

// WithStaleTTL sets the stale copy TTL for this call. Only meaningful with
// fallback enabled and a value strictly greater than the primary TTL.
func WithStaleTTL(d time.Duration) FetchOption {
	return func(fc *fetchConfig) { fc.staleTTL = d }
}

// WithFallback toggles stale fallback for this call.
func WithFallback(on bool) FetchOption {
	return func(fc *fetchConfig) { fc.fallback = on }
}
