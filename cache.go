package herdcache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/herdcache/backend"
	"github.com/unkn0wn-root/herdcache/codec"
	"github.com/unkn0wn-root/herdcache/internal/backoff"
)

type cache[V any] struct {
	bk     backend.Backend
	codec  codec.Codec[V]
	log    Logger
	report Reporter

	prefix  string
	version string

	enabled  bool
	fallback bool

	defaultTTL  time.Duration
	lockTimeout time.Duration
	staleTTL    time.Duration

	flight *singleflight.Group // nil unless LocalFlight
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Backend == nil {
		return nil, &ConfigError{Reason: "backend is required"}
	}
	if opts.Codec == nil {
		return nil, &ConfigError{Reason: "codec is required"}
	}

	c := &cache[V]{
		bk:       opts.Backend,
		codec:    opts.Codec,
		prefix:   opts.Prefix,
		version:  opts.Version,
		enabled:  !opts.Disabled,
		fallback: opts.Fallback,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.report = coalesce[Reporter](opts.Reporter, NopReporter{})
	c.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)
	c.lockTimeout = coalesce(opts.LockTimeout, defaultLockTimeout)
	c.staleTTL = coalesce(opts.StaleTTL, defaultStaleTTL)

	if opts.LocalFlight {
		c.flight = new(singleflight.Group)
	}
	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	return c.bk.Close(ctx)
}

func (c *cache[V]) callConfig(opts []FetchOption) fetchConfig {
	fc := fetchConfig{
		ttl:         c.defaultTTL,
		lockTimeout: c.lockTimeout,
		staleTTL:    c.staleTTL,
		fallback:    c.fallback,
	}
	for _, o := range opts {
		o(&fc)
	}
	return fc
}

// Fetch implements cache-aside with single-flight stampede protection.
//
// Known race: if the winning origin call outlives the lock TTL, a second
// caller may acquire the lock and start a duplicate origin call. This is
// accepted; holding the lock past its TTL would risk permanent blocking if
// the first holder crashed.
func (c *cache[V]) Fetch(ctx context.Context, key string, origin OriginFunc[V], opts ...FetchOption) (V, error) {
	if !c.enabled {
		return origin(ctx)
	}
	if c.flight == nil {
		return c.fetch(ctx, key, origin, opts)
	}
	var zero V
	v, err, _ := c.flight.Do(c.Key(key), func() (any, error) {
		return c.fetch(ctx, key, origin, opts)
	})
	if err != nil {
		return zero, err
	}
	return v.(V), nil
}

func (c *cache[V]) fetch(ctx context.Context, key string, origin OriginFunc[V], opts []FetchOption) (V, error) {
	var zero V
	fc := c.callConfig(opts)
	full := c.Key(key)

	v, ok, err := c.read(ctx, full)
	if err != nil {
		// A broken store or payload is never treated as a miss.
		return zero, err
	}
	if ok {
		c.report.Report(Event{Kind: EventHit, Key: full})
		return v, nil
	}
	c.report.Report(Event{Kind: EventMiss, Key: full})

	lockKey := LockPrefix + full
	acquired, err := c.bk.TryLock(ctx, lockKey, fc.lockTimeout)
	if err != nil {
		return zero, &BackendError{Op: "lock", Key: lockKey, Err: err}
	}
	if acquired {
		return c.compute(ctx, full, lockKey, origin, fc)
	}
	return c.await(ctx, key, full, fc)
}

// compute runs on the single-flight winner: call origin, publish the result,
// release the lock on every exit path exactly once.
func (c *cache[V]) compute(ctx context.Context, full, lockKey string, origin OriginFunc[V], fc fetchConfig) (V, error) {
	var zero V
	c.report.Report(Event{Kind: EventLock, Key: full})
	defer c.unlock(ctx, lockKey)

	v, originErr := origin(ctx)
	if originErr != nil {
		c.report.Report(Event{Kind: EventErr, Key: full, Err: originErr})
		if fc.fallback {
			staleKey := StalePrefix + full
			sv, ok, readErr := c.read(ctx, staleKey)
			if readErr != nil {
				c.log.Warn("stale read failed", Fields{"key": staleKey, "err": readErr})
			} else if ok {
				c.report.Report(Event{Kind: EventHit, Key: staleKey})
				return sv, nil
			}
		}
		// Propagate the origin error verbatim; never mask it.
		return zero, originErr
	}

	payload, err := c.codec.Encode(v)
	if err != nil {
		return zero, &SerializationError{Key: full, Err: err}
	}
	if err := c.bk.Set(ctx, full, payload, fc.ttl); err != nil {
		// The value is good even if the store will not take it; serve the
		// caller and let the next fetch retry the write.
		c.report.Report(Event{Kind: EventErr, Key: full, Err: err})
		c.log.Error("cache write failed", Fields{"key": full, "err": err})
		return v, nil
	}
	if fc.fallback && fc.staleTTL > fc.ttl {
		staleKey := StalePrefix + full
		if err := c.bk.Set(ctx, staleKey, payload, fc.staleTTL); err != nil {
			c.report.Report(Event{Kind: EventErr, Key: staleKey, Err: err})
			c.log.Error("stale write failed", Fields{"key": staleKey, "err": err})
		}
	}
	return v, nil
}

// await runs on losing callers: poll for the value the winner publishes,
// with multiplicative backoff, until lockTimeout is exhausted.
func (c *cache[V]) await(ctx context.Context, key, full string, fc fetchConfig) (V, error) {
	var zero V
	c.report.Report(Event{Kind: EventWait, Key: full})

	start := time.Now() // monotonic; immune to wall-clock adjustments
	delay := backoff.New(pollInitial, pollCeiling, pollFactor)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		remaining := fc.lockTimeout - time.Since(start)
		if remaining <= 0 {
			return zero, &TimeoutError{Key: key, Wait: fc.lockTimeout}
		}
		d := delay.Next()
		if d > remaining {
			d = remaining
		}
		timer.Reset(d)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
		}

		v, ok, err := c.read(ctx, full)
		if err != nil {
			// Transient poll failures do not abort the wait.
			c.log.Warn("poll read failed", Fields{"key": full, "err": err})
			continue
		}
		if ok {
			c.report.Report(Event{Kind: EventHit, Key: full})
			return v, nil
		}
	}
}

// read loads and decodes one storage key. Absence is (zero, false, nil);
// store and payload failures map to the typed taxonomy.
func (c *cache[V]) read(ctx context.Context, storageKey string) (V, bool, error) {
	var zero V
	raw, ok, err := c.bk.Get(ctx, storageKey)
	if err != nil {
		return zero, false, &BackendError{Op: "get", Key: storageKey, Err: err}
	}
	if !ok {
		return zero, false, nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return zero, false, &SerializationError{Key: storageKey, Err: err}
	}
	return v, true, nil
}

// unlock releases the single-flight lock. Failures are reported and logged
// but never raised; the lock's own TTL is the safety net.
func (c *cache[V]) unlock(ctx context.Context, lockKey string) {
	if err := c.bk.Unlock(ctx, lockKey); err != nil {
		c.report.Report(Event{Kind: EventErr, Key: lockKey, Err: err})
		c.log.Error("lock release failed", Fields{"key": lockKey, "err": err})
	}
}

func (c *cache[V]) Populate(ctx context.Context, entries []Entry[V]) error {
	if !c.enabled {
		return nil
	}
	for _, e := range entries {
		full := c.Key(e.Key)
		payload, err := c.codec.Encode(e.Value)
		if err != nil {
			return &SerializationError{Key: full, Err: err}
		}
		ttl := coalesce(e.TTL, c.defaultTTL)
		if err := c.bk.Set(ctx, full, payload, ttl); err != nil {
			return &BackendError{Op: "set", Key: full, Err: err}
		}
	}
	return nil
}

func (c *cache[V]) Invalidate(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	full := c.Key(key)
	if err := c.bk.Delete(ctx, full); err != nil {
		return &BackendError{Op: "delete", Key: full, Err: err}
	}
	if err := c.bk.Delete(ctx, StalePrefix+full); err != nil {
		return &BackendError{Op: "delete", Key: StalePrefix + full, Err: err}
	}
	return nil
}

func (c *cache[V]) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	ns := c.namespace()
	if ns == "" {
		return &ConfigError{Reason: "clear requires a prefix or version; refusing to wipe an unscoped keyspace"}
	}
	for _, p := range []string{ns, LockPrefix + ns, StalePrefix + ns} {
		if err := c.bk.Clear(ctx, p); err != nil {
			if errors.Is(err, backend.ErrClearUnsupported) {
				return err
			}
			return &BackendError{Op: "clear", Key: p, Err: err}
		}
	}
	return nil
}
