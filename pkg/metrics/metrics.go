// Package metrics provides the centralized Prometheus metrics registry for
// the docstore client. All metrics are defined in their respective packages
// (cache, client, ratelimit, telemetry) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the docstore client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - docstore_cache_hits_total (Counter): Cache hits
//   - docstore_cache_misses_total (Counter): Cache misses
//   - docstore_cache_evictions_total{reason} (Counter): Evictions by reason (expired, lru)
//   - docstore_cache_entries (Gauge): Current number of tracked entries
//   - docstore_cache_size_bytes (Gauge): Estimated cache size in bytes
//   - docstore_cache_rejects_total (Counter): Oversize entries silently rejected
//
// Request Metrics (pkg/client):
//   - docstore_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - docstore_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - docstore_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - docstore_retries_total{error_class} (Counter): Retry attempts by error class
//   - docstore_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - docstore_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - docstore_ratelimit_waits_total (Counter): Requests delayed by client-side pacing
//   - docstore_ratelimit_wait_seconds (Histogram): Time spent waiting on the limiter
//
// Monitoring Metrics (pkg/telemetry):
//   - docstore_monitor_heap_bytes (Gauge): Sampled process memory footprint
//   - docstore_monitor_samples_total (Counter): Monitoring samples taken
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(docstore_cache_hits_total[5m]) /
//   (rate(docstore_cache_hits_total[5m]) + rate(docstore_cache_misses_total[5m]))
//
//   # Eviction Pressure
//   rate(docstore_cache_evictions_total{reason="lru"}[5m])
//
//   # Request Error Rate
//   rate(docstore_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(docstore_request_duration_seconds_bucket[5m]))
