// Package herdcache implements a backend-agnostic cache-aside layer with
// single-flight stampede protection. When many concurrent callers fetch the
// same missing key, one acquires a distributed per-key lock and computes the
// value from the origin; the rest poll the store until the value appears.
//
// Components:
//   - Backend: byte store with TTLs and an atomic per-key lock
//     (e.g. Redis, in-process memory, BigCache, Ristretto).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - Reporter: synchronous lifecycle events (hit, miss, lock, wait, error).
//
// Keys:
//
//	<prefix>:<version>:<key>        - primary entries
//	lock:<prefix>:<version>:<key>   - single-flight locks
//	stale:<prefix>:<version>:<key>  - last-known-good fallback copies
//
// With fallback enabled, every successful origin call also writes a
// longer-lived stale copy; if the primary entry is gone and a recompute
// fails, the stale copy is served instead of the origin error.
package herdcache
