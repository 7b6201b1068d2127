package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart snapshot and checkout activity.
type CartMetrics struct {
	snapshotLoads  *prometheus.CounterVec
	staleDiscards  prometheus.Counter
	checkouts      *prometheus.CounterVec
	submitDuration prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	snapshotLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_snapshot_loads",
		Help: "Cart snapshot load attempts by outcome.",
	}, []string{"outcome"})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_snapshot_stale_discards",
		Help: "Snapshot responses discarded because a newer load superseded them.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_checkouts",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_checkout_submit_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(snapshotLoads, staleDiscards, checkouts, submitDuration)
	return &CartMetrics{
		snapshotLoads:  snapshotLoads,
		staleDiscards:  staleDiscards,
		checkouts:      checkouts,
		submitDuration: submitDuration,
	}
}

// Snapshot load outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeError   = "error"

	OutcomeAccepted     = "accepted"
	OutcomeRejected     = "rejected"
	OutcomeRefusedLocal = "refused_local"
)

// IncSnapshotLoad increments the snapshot load counter for the outcome.
func (c *CartMetrics) IncSnapshotLoad(outcome string) {
	if c == nil || c.snapshotLoads == nil {
		return
	}
	c.snapshotLoads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStaleDiscard counts one superseded snapshot response that was dropped.
func (c *CartMetrics) IncStaleDiscard() {
	if c == nil || c.staleDiscards == nil {
		return
	}
	c.staleDiscards.Inc()
}

// IncCheckout increments the checkout counter for the outcome.
func (c *CartMetrics) IncCheckout(outcome string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveSubmitDuration records how long a checkout submission took.
func (c *CartMetrics) ObserveSubmitDuration(duration time.Duration) {
	if c == nil || c.submitDuration == nil {
		return
	}
	c.submitDuration.Observe(duration.Seconds())
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
