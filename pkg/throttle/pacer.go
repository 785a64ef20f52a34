// Package throttle implements client-side request pacing. SGS publishes
// no rate-limit headers, so the pacer enforces a fixed minimum delay
// between consecutive individual requests instead of tracking a server
// error budget.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	throttleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sgs_throttle_waits_total",
		Help: "Total number of throttle delays applied between requests",
	})

	throttleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sgs_throttle_wait_seconds",
		Help:    "Duration of throttle delays",
		Buckets: []float64{0.1, 0.5, 1, 2, 5},
	})
)

// Pacer spaces out consecutive requests by a fixed delay. The first
// Wait of a run returns immediately so a run never starts with dead
// time. Not safe for concurrent use; the fetch loop is sequential.
type Pacer struct {
	delay   time.Duration
	started bool
	logger  zerolog.Logger
}

// NewPacer creates a pacer with the given inter-request delay.
// A non-positive delay disables pacing entirely.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{
		delay:  delay,
		logger: log.With().Str("component", "throttle").Logger(),
	}
}

// Wait blocks for the configured delay, except before the very first
// request of a run. It returns early with an error if the context is
// cancelled during the wait.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}

	if !p.started {
		p.started = true
		return nil
	}

	throttleWaitsTotal.Inc()
	throttleWaitSeconds.Observe(p.delay.Seconds())

	p.logger.Debug().
		Dur("delay", p.delay).
		Msg("Throttling before individual request")

	select {
	case <-ctx.Done():
		return fmt.Errorf("throttle wait cancelled: %w", ctx.Err())
	case <-time.After(p.delay):
		return nil
	}
}

// Reset arms the pacer for a new run, making the next Wait free again.
func (p *Pacer) Reset() {
	p.started = false
}
