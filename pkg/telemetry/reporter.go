package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/arcstore/docstore-client/pkg/cache"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	heapBytesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docstore_monitor_heap_bytes",
		Help: "Process memory footprint sampled by the monitoring layer",
	})

	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docstore_monitor_samples_total",
		Help: "Total number of monitoring samples taken",
	})
)

// StatsSource is the view of the cache store the reporter observes.
// Stats is read-only; Clear is only invoked through the explicit
// ClearCache passthrough.
type StatsSource interface {
	Stats() cache.Snapshot
	Clear()
}

// Snapshot is a merged display sample of cache and host-runtime state.
type Snapshot struct {
	// Cache is the store's own stats snapshot.
	Cache cache.Snapshot

	// HeapBytes is the sampled process memory footprint.
	// Valid only when HeapAvailable is true.
	HeapBytes     uint64
	HeapAvailable bool

	// Uptime is the time since the reporter was created.
	Uptime time.Duration

	// SampledAt is when this sample was taken.
	SampledAt time.Time
}

// HeapDisplay returns a human-readable heap size, or "unavailable" when
// the runtime exposes no memory signal.
func (s Snapshot) HeapDisplay() string {
	if !s.HeapAvailable {
		return "unavailable"
	}
	return humanize.Bytes(s.HeapBytes)
}

// CacheDisplay returns a human-readable estimate of the cache footprint.
func (s Snapshot) CacheDisplay() string {
	return humanize.Bytes(uint64(s.Cache.Bytes))
}

// Config holds reporter configuration.
type Config struct {
	// Interval between samples while the reporter is started.
	Interval time.Duration

	// Probe supplies host memory readings. Nil means unavailable.
	Probe MemoryProbe
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
		Probe:    NewProcessProbe(),
	}
}

// Reporter periodically samples a StatsSource and a MemoryProbe into
// display snapshots. It is a read-only observer of the cache.
type Reporter struct {
	source StatsSource
	cfg    Config
	logger zerolog.Logger

	createdAt time.Time

	mu   sync.Mutex
	last Snapshot
	stop chan struct{}
	done chan struct{}
}

// NewReporter creates a reporter over source. Sampling does not begin
// until Start is called.
func NewReporter(source StatsSource, cfg Config) (*Reporter, error) {
	if source == nil {
		return nil, fmt.Errorf("stats source is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Probe == nil {
		cfg.Probe = UnavailableProbe{}
	}
	return &Reporter{
		source:    source,
		cfg:       cfg,
		logger:    log.With().Str("component", "telemetry").Logger(),
		createdAt: time.Now(),
	}, nil
}

// Start begins periodic sampling. Calling Start on a running reporter is
// a no-op. The first sample is taken immediately.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop = stop
	r.done = done
	r.mu.Unlock()

	r.sample()
	r.logger.Debug().Dur("interval", r.cfg.Interval).Msg("Monitoring started")

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.sample()
			}
		}
	}()
}

// Stop ends periodic sampling and releases the ticker. Calling Stop on a
// stopped reporter is a no-op. The last snapshot remains readable.
func (r *Reporter) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop = nil
	r.done = nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	r.logger.Debug().Msg("Monitoring stopped")
}

// Snapshot returns the most recent sample. When the reporter has never
// sampled (not started yet), a fresh sample is taken on demand.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()

	if last.SampledAt.IsZero() {
		return r.sample()
	}
	return last
}

// ClearCache empties the observed cache store. This is the only mutation
// the monitoring layer performs, and only on explicit request.
func (r *Reporter) ClearCache() {
	r.source.Clear()
	r.logger.Info().Msg("Cache cleared from monitor")
	r.sample()
}

func (r *Reporter) sample() Snapshot {
	snap := Snapshot{
		Cache:     r.source.Stats(),
		Uptime:    time.Since(r.createdAt),
		SampledAt: time.Now(),
	}
	snap.HeapBytes, snap.HeapAvailable = r.cfg.Probe.Sample()

	samplesTotal.Inc()
	if snap.HeapAvailable {
		heapBytesGauge.Set(float64(snap.HeapBytes))
	}

	r.mu.Lock()
	r.last = snap
	r.mu.Unlock()
	return snap
}
