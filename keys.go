package herdcache

import "strings"

// Storage-key prefixes owned by herdcache. Lock entries guard single-flight
// computation; stale entries hold the last known good value for fallback.
const (
	LockPrefix  = "lock:"
	StalePrefix = "stale:"

	keyDelimiter = ":"
)

// composeKey joins the non-empty segments of {prefix, version, logical} in
// that order with ":". Deterministic; a segment containing the delimiter is
// an accepted collision hazard, not escaped. Callers should validate logical
// keys (non-empty, no control characters) before reaching this layer.
func composeKey(prefix, version, logical string) string {
	segs := make([]string, 0, 3)
	for _, s := range []string{prefix, version, logical} {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, keyDelimiter)
}

// Key returns the namespaced storage key for a logical key.
func (c *cache[V]) Key(logical string) string {
	return composeKey(c.prefix, c.version, logical)
}

// namespace is the prefix shared by every primary key this handler writes,
// including the trailing delimiter. Empty when the handler has no prefix and
// no version.
func (c *cache[V]) namespace() string {
	ns := composeKey(c.prefix, c.version, "")
	if ns == "" {
		return ""
	}
	return ns + keyDelimiter
}
