// Package cache provides an in-memory keyed store with TTL and LRU eviction.
//
// The store memoizes expensive fetch/search results behind the docstore
// access layer with the following features:
//
// - Per-entry TTL with lazy expiration (no background timers)
// - LRU eviction bounded by entry capacity and a byte budget
// - Prefix invalidation for resource families (e.g. all search pages)
// - Read-only stats snapshots for the monitoring layer
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create a store for decoded API results
//	store := cache.New[any](cache.DefaultConfig[any]())
//
//	// Store a value for five minutes
//	store.Set("doc:42", doc, 5*time.Minute)
//
//	// Read it back
//	if v, ok := store.Get("doc:42"); ok {
//		// cache hit
//	}
//
// # Invalidation
//
//	// Drop a single entry
//	store.Invalidate("doc:42")
//
//	// Drop a whole resource family
//	store.InvalidatePrefix("search:")
//
//	// Drop everything and reset counters
//	store.Clear()
//
// # Stats
//
//	snap := store.Stats()
//	fmt.Println(snap.Size, snap.HitCount, snap.MissCount)
//
// The snapshot is a point-in-time copy; mutating it never affects the store.
//
// # Eviction Policy
//
// Eviction is hybrid TTL + LRU. Expired entries are not swept proactively;
// they are removed on the next Get or Set that touches them, or during an
// eviction pass when the store is over capacity. When a Set would exceed the
// configured capacity or byte budget, least-recently-used entries are removed
// until the new entry fits. An entry larger than the entire byte budget is
// rejected silently instead of evicting everything else.
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - docstore_cache_hits_total - Cache hits
//   - docstore_cache_misses_total - Cache misses
//   - docstore_cache_evictions_total{reason} - Evictions by reason
//   - docstore_cache_entries - Current live entry count
//   - docstore_cache_size_bytes - Estimated cache size in bytes
//   - docstore_cache_rejects_total - Oversize entries rejected
package cache
