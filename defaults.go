package herdcache

import "time"

const (
	defaultTTL         = 5 * time.Minute
	defaultLockTimeout = 5 * time.Second
	defaultStaleTTL    = time.Hour

	// Poll schedule for callers waiting on another caller's computation.
	// Starts low to keep early latency down, doubles up to the ceiling to
	// keep backend load bounded under heavy wait fan-out.
	pollInitial = 20 * time.Millisecond
	pollCeiling = 250 * time.Millisecond
	pollFactor  = 2
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
