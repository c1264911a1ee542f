package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics records bid admission outcomes and latency.
type AdmissionMetrics struct {
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	extended prometheus.Counter
	latency  prometheus.Histogram
}

// NewAdmissionMetrics registers the admission metrics on the provided registerer.
func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	if reg == nil {
		return &AdmissionMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bid_accepted_total",
		Help: "Accepted bids.",
	}, []string{"method"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bid_rejected_total",
		Help: "Rejected bids by reason.",
	}, []string{"reason"})
	extended := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_extensions_total",
		Help: "Anti-snipe extensions applied.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bid_admission_duration_seconds",
		Help:    "Time spent admitting a single bid.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(accepted, rejected, extended, latency)
	return &AdmissionMetrics{
		accepted: accepted,
		rejected: rejected,
		extended: extended,
		latency:  latency,
	}
}

// IncAccepted increments the accepted counter for the auction method.
func (a *AdmissionMetrics) IncAccepted(method string) {
	if a == nil || a.accepted == nil {
		return
	}
	a.accepted.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncRejected increments the rejected counter for the given reason.
func (a *AdmissionMetrics) IncRejected(reason string) {
	if a == nil || a.rejected == nil {
		return
	}
	a.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncExtended increments the anti-snipe extension counter.
func (a *AdmissionMetrics) IncExtended() {
	if a == nil || a.extended == nil {
		return
	}
	a.extended.Inc()
}

// ObserveLatency records how long a single admission took.
func (a *AdmissionMetrics) ObserveLatency(duration time.Duration) {
	if a == nil || a.latency == nil {
		return
	}
	a.latency.Observe(duration.Seconds())
}
