package cache

import (
	"time"
)

// Entry is a cached value together with its lifecycle metadata.
// Entries are owned exclusively by the store; the value is treated as an
// immutable snapshot. Callers that need to modify a cached value must copy
// it and re-Set the copy.
type Entry[V any] struct {
	// Key is the canonical cache key this entry is stored under.
	Key string

	// Value is the cached result.
	Value V

	// CreatedAt is when the entry was inserted or last refreshed.
	CreatedAt time.Time

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time

	// SizeHint is the estimated memory footprint of the value in bytes.
	SizeHint int64
}

// IsExpired returns true if the entry has passed its TTL.
func (e *Entry[V]) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry[V]) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
