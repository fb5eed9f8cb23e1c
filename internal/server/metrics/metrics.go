// Package metrics exposes Prometheus instrumentation for the privacyd
// backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the backend's counters and histograms. Constructed once
// and registered against a (possibly test-local) registry.
type Metrics struct {
	SaltReads           prometheus.Counter
	SaltWrites          prometheus.Counter
	SaltConflicts       prometheus.Counter
	AuditEventsAccepted prometheus.Counter
	AuditEventsRejected prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers the metric set.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SaltReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privacyd_salt_reads_total",
			Help: "Number of successful salt reads.",
		}),
		SaltWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privacyd_salt_writes_total",
			Help: "Number of successful first-time salt writes.",
		}),
		SaltConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privacyd_salt_conflicts_total",
			Help: "Number of rejected salt overwrites.",
		}),
		AuditEventsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privacyd_audit_events_accepted_total",
			Help: "Number of audit events accepted for append.",
		}),
		AuditEventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privacyd_audit_events_rejected_total",
			Help: "Number of audit events rejected as malformed.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "privacyd_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		m.SaltReads, m.SaltWrites, m.SaltConflicts,
		m.AuditEventsAccepted, m.AuditEventsRejected,
		m.RequestDuration,
	)
	return m
}
