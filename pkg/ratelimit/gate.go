// Package ratelimit provides client-side request pacing for the docstore API.
//
// The gate is a process-local token bucket. It keeps a badly behaving
// caller (tight polling loops, unbounded prefetching) from hammering the
// backend; server-side limits remain authoritative.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request pacing.
var (
	waitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docstore_ratelimit_waits_total",
		Help: "Total number of requests delayed by the client-side rate limiter",
	})

	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docstore_ratelimit_wait_seconds",
		Help:    "Time requests spent waiting on the client-side rate limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// Gate paces outbound requests with a token bucket.
type Gate struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGate creates a gate allowing perSecond sustained requests with the
// given burst. perSecond <= 0 disables pacing entirely.
func NewGate(perSecond float64, burst int, logger zerolog.Logger) *Gate {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
		burst = 0
	} else if burst < 1 {
		burst = 1
	}
	return &Gate{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Wait blocks until a request may proceed or the context is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g.limiter.Allow() {
		return nil
	}

	waitsTotal.Inc()
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	waited := time.Since(start)
	waitSeconds.Observe(waited.Seconds())

	g.logger.Debug().
		Dur("waited", waited).
		Msg("Request delayed by rate limiter")
	return nil
}

// Allow reports whether a request may proceed right now, consuming a
// token when it may.
func (g *Gate) Allow() bool {
	return g.limiter.Allow()
}
