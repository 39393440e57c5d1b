package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the detection engine.
type Metrics struct {
	ScanRuns     prometheus.Counter
	Findings     *prometheus.CounterVec
	RuleFailures *prometheus.CounterVec
}

// New creates and registers all detection metrics.
func New() *Metrics {
	return &Metrics{
		ScanRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_detection_scan_runs_total",
			Help: "Total number of detection scan runs",
		}),
		Findings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_detection_findings_total",
			Help: "Total number of findings converted to system reports, per rule",
		}, []string{"rule"}),
		RuleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_detection_rule_failures_total",
			Help: "Total number of isolated rule failures, per rule",
		}, []string{"rule"}),
	}
}
