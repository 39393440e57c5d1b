package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the integrity service.
type Metrics struct {
	AnonymousReports prometheus.Counter
	SystemReports    prometheus.Counter
	ReportUpdates    prometheus.Counter
	AuditWriteFails  prometheus.Counter
}

// New creates and registers all integrity metrics.
func New() *Metrics {
	return &Metrics{
		AnonymousReports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_integrity_anonymous_reports_total",
			Help: "Total number of anonymously submitted integrity reports",
		}),
		SystemReports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_integrity_system_reports_total",
			Help: "Total number of system-generated integrity reports",
		}),
		ReportUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_integrity_report_updates_total",
			Help: "Total number of integrity report updates",
		}),
		AuditWriteFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_integrity_audit_write_failures_total",
			Help: "Total number of swallowed audit trail write failures",
		}),
	}
}
