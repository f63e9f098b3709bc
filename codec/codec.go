// Package codec defines how cached values are serialized for storage.
//
// A decode failure is surfaced by the cache layer as a distinct
// serialization error, never as a miss, so a corrupt payload in a shared
// store is visible rather than silently recomputed.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
