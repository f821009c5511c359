package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records scan pipeline and fulfillment outcomes.
type ScanMetrics struct {
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
	shipped  prometheus.Counter
}

// NewScanMetrics registers the scan metrics on the provided registerer.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_accepted_total",
		Help: "Accepted barcode scans.",
	}, []string{"contents_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_rejected_total",
		Help: "Rejected barcode scans by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Duration of scan submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	shipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_shipped_total",
		Help: "Orders advanced to shipped.",
	})
	reg.MustRegister(accepted, rejected, duration, shipped)
	return &ScanMetrics{
		accepted: accepted,
		rejected: rejected,
		duration: duration,
		shipped:  shipped,
	}
}

// IncAccepted increments the accepted counter for the given contents type.
func (m *ScanMetrics) IncAccepted(contentsType string) {
	if m == nil || m.accepted == nil {
		return
	}
	m.accepted.WithLabelValues(contentsType).Inc()
}

// IncRejected increments the rejected counter for the given reason.
func (m *ScanMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// ObserveScanDuration records how long a scan submission took.
func (m *ScanMetrics) ObserveScanDuration(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncShipped increments the shipped order counter.
func (m *ScanMetrics) IncShipped() {
	if m == nil || m.shipped == nil {
		return
	}
	m.shipped.Inc()
}
