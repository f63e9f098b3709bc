package herdcache

import (
	"fmt"
	"time"
)

// BackendError reports that the store itself failed (transport, availability)
// during the named operation. The underlying cause is available via Unwrap.
type BackendError struct {
	Op  string // "get", "set", "delete", "lock", "unlock", "clear"
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("herdcache: backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// SerializationError reports that a payload could not be encoded or decoded.
// Distinct from BackendError so callers can tell "the store is broken" apart
// from "this payload is malformed".
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("herdcache: serialize %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TimeoutError reports that a waiting caller gave up before the single-flight
// winner published a value. Key is the logical key the caller asked for.
type TimeoutError struct {
	Key  string
	Wait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("herdcache: timed out after %s waiting for %q", e.Wait, e.Key)
}

// ConfigError reports invalid handler setup, e.g. a missing backend or a
// namespace-wide clear on a handler with no namespace.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "herdcache: " + e.Reason
}
