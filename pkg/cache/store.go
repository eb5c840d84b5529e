package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds store configuration.
type Config[V any] struct {
	// Capacity is the maximum number of live entries. Zero means unlimited.
	Capacity int

	// MaxBytes is the estimated memory budget in bytes. Zero means unlimited.
	MaxBytes int64

	// Sizer estimates the memory footprint of a value in bytes.
	// When nil, entries are tracked by count only and the byte budget
	// is not enforced.
	Sizer func(V) int64

	// Logger used for eviction and rejection events.
	Logger zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig[V any]() Config[V] {
	return Config[V]{
		Capacity: 512,
		MaxBytes: 32 << 20, // 32 MiB
		Logger:   log.With().Str("component", "cache").Logger(),
	}
}

// Snapshot is a point-in-time, read-only view of the store.
// It never aliases store internals; mutating a snapshot has no effect
// on the live store.
type Snapshot struct {
	// Size is the number of live (non-expired) entries.
	Size int

	// Keys lists live entry keys in recency order, most recent first.
	Keys []string

	// HitCount and MissCount are the aggregate lookup counters.
	HitCount  uint64
	MissCount uint64

	// EvictionCount is the number of entries removed by capacity or
	// TTL-driven eviction since the last Clear.
	EvictionCount uint64

	// Bytes is the estimated memory footprint of all tracked entries.
	Bytes int64
}

// Store is a keyed in-memory cache with hybrid TTL + LRU eviction.
// It is safe for concurrent use. No store operation invokes caller code
// while holding the internal lock, so synchronous reentrancy cannot
// observe partial state.
type Store[V any] struct {
	cfg Config[V]

	mu        sync.Mutex
	entries   map[string]*list.Element // key -> element holding *Entry[V]
	recency   *list.List               // front = most recently used
	bytes     int64
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a store with the given configuration.
func New[V any](cfg Config[V]) *Store[V] {
	return &Store[V]{
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		recency: list.New(),
	}
}

// Get returns the value stored under key if present and not expired.
// A hit marks the entry most recently used. A present-but-expired entry
// is removed and counted as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V

	elem, ok := s.entries[key]
	if !ok {
		s.misses++
		Misses.Inc()
		return zero, false
	}

	entry := elem.Value.(*Entry[V])
	if entry.IsExpired() {
		s.removeElement(elem, "expired")
		s.misses++
		Misses.Inc()
		return zero, false
	}

	s.recency.MoveToFront(elem)
	s.hits++
	Hits.Inc()
	return entry.Value, true
}

// Set inserts or overwrites the entry for key with the given TTL.
// It never fails: an entry larger than the entire byte budget is rejected
// silently rather than evicting everything else to make room.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	size := s.sizeOf(value)
	if s.cfg.MaxBytes > 0 && size > s.cfg.MaxBytes {
		Rejects.Inc()
		s.cfg.Logger.Debug().
			Str("key", key).
			Int64("size", size).
			Int64("budget", s.cfg.MaxBytes).
			Msg("Entry exceeds cache budget, not stored")
		return
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		// Refresh in place: re-stamp timestamps and update accounting.
		entry := elem.Value.(*Entry[V])
		s.bytes += size - entry.SizeHint
		entry.Value = value
		entry.CreatedAt = now
		entry.ExpiresAt = now.Add(ttl)
		entry.SizeHint = size
		s.recency.MoveToFront(elem)
	} else {
		entry := &Entry[V]{
			Key:       key,
			Value:     value,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
			SizeHint:  size,
		}
		s.entries[key] = s.recency.PushFront(entry)
		s.bytes += size
	}

	s.evictLocked()
	s.publishGauges()
}

// Invalidate removes the entry for key if present. Idempotent.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.removeElement(elem, "")
		s.publishGauges()
	}
}

// InvalidatePrefix removes all entries whose key starts with prefix.
// Used when an underlying resource family changes, such as every result
// page of a search after the backing documents change. Idempotent.
func (s *Store[V]) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, elem := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeElement(elem, "")
			removed++
		}
	}
	if removed > 0 {
		s.cfg.Logger.Debug().
			Str("prefix", prefix).
			Int("removed", removed).
			Msg("Invalidated cache prefix")
		s.publishGauges()
	}
}

// Clear removes all entries and resets the hit/miss/eviction counters.
// Idempotent.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.recency.Init()
	s.bytes = 0
	s.hits = 0
	s.misses = 0
	s.evictions = 0
	s.publishGauges()
}

// Stats returns a read-only snapshot of the store.
// Expired entries are excluded from Size and Keys but are not removed;
// reading stats never mutates store state.
func (s *Store[V]) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for elem := s.recency.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*Entry[V])
		if entry.IsExpired() {
			continue
		}
		keys = append(keys, entry.Key)
	}

	return Snapshot{
		Size:          len(keys),
		Keys:          keys,
		HitCount:      s.hits,
		MissCount:     s.misses,
		EvictionCount: s.evictions,
		Bytes:         s.bytes,
	}
}

// Len returns the number of tracked entries, expired included.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[V]) sizeOf(value V) int64 {
	if s.cfg.Sizer == nil {
		return 0
	}
	return s.cfg.Sizer(value)
}

// evictLocked restores the capacity and byte-budget invariants.
// Expired entries are dropped first, then least-recently-used live ones.
// Caller must hold s.mu.
func (s *Store[V]) evictLocked() {
	if !s.overBudgetLocked() {
		return
	}

	// Eviction pass doubles as the opportunistic sweep for expired entries.
	var expired []*list.Element
	for elem := s.recency.Front(); elem != nil; elem = elem.Next() {
		if elem.Value.(*Entry[V]).IsExpired() {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		s.removeElement(elem, "expired")
		s.evictions++
	}

	for s.overBudgetLocked() {
		back := s.recency.Back()
		if back == nil {
			return
		}
		s.removeElement(back, "lru")
		s.evictions++
	}
}

func (s *Store[V]) overBudgetLocked() bool {
	if s.cfg.Capacity > 0 && len(s.entries) > s.cfg.Capacity {
		return true
	}
	if s.cfg.MaxBytes > 0 && s.bytes > s.cfg.MaxBytes {
		return true
	}
	return false
}

// removeElement unlinks an entry from both the map and the recency list.
// Caller must hold s.mu. reason is recorded in metrics when non-empty.
func (s *Store[V]) removeElement(elem *list.Element, reason string) {
	entry := elem.Value.(*Entry[V])
	delete(s.entries, entry.Key)
	s.recency.Remove(elem)
	s.bytes -= entry.SizeHint
	if reason != "" {
		Evictions.WithLabelValues(reason).Inc()
	}
}

func (s *Store[V]) publishGauges() {
	EntriesGauge.Set(float64(len(s.entries)))
	SizeBytes.Set(float64(s.bytes))
}
