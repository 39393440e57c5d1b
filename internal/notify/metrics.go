package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for notification dispatch.
type Metrics struct {
	Queued  prometheus.Counter
	Dropped prometheus.Counter
}

// NewMetrics creates and registers all dispatcher metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Queued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_notifications_queued_total",
			Help: "Total number of oversight notifications enqueued",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_notifications_dropped_total",
			Help: "Total number of oversight notifications dropped (queue absent or enqueue failed)",
		}),
	}
}
