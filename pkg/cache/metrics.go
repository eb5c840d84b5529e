package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks cache hits
	Hits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_cache_hits_total",
			Help: "Total number of docstore cache hits",
		},
	)

	// Misses tracks cache misses
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_cache_misses_total",
			Help: "Total number of docstore cache misses",
		},
	)

	// Evictions tracks entries removed by eviction, by reason
	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_cache_evictions_total",
			Help: "Total number of docstore cache evictions",
		},
		[]string{"reason"}, // "expired", "lru"
	)

	// EntriesGauge tracks the current number of tracked entries
	EntriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docstore_cache_entries",
			Help: "Current number of entries in the docstore cache",
		},
	)

	// SizeBytes tracks the estimated cache size in bytes
	SizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docstore_cache_size_bytes",
			Help: "Estimated size of the docstore cache in bytes",
		},
	)

	// Rejects tracks oversize entries that were silently not stored
	Rejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_cache_rejects_total",
			Help: "Total number of entries rejected for exceeding the cache budget",
		},
	)
)
