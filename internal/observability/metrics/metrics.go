package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters for the lead pipeline: upserts on one side,
// follow-up dispatch on the other. A nil *LeadMetrics is a valid no-op, so
// callers never need to guard observation sites.
type LeadMetrics struct {
	upsertsTotal    *prometheus.CounterVec
	scheduledTotal  *prometheus.CounterVec
	dispatchedTotal *prometheus.CounterVec
	dispatchSeconds prometheus.Histogram
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		upsertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "leads",
			Name:      "upserts_total",
			Help:      "Total lead upserts",
		}, []string{"qualified"}),
		scheduledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "followup",
			Name:      "scheduled_total",
			Help:      "Total follow-up messages scheduled",
		}, []string{"timing", "channel"}),
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "followup",
			Name:      "dispatched_total",
			Help:      "Total follow-up dispatch attempts",
		}, []string{"channel", "status"}),
		dispatchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "followup",
			Name:      "dispatch_seconds",
			Help:      "Latency of one follow-up dispatch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upsertsTotal, m.scheduledTotal, m.dispatchedTotal, m.dispatchSeconds)
	return m
}

func (m *LeadMetrics) ObserveUpsert(qualified bool) {
	if m == nil {
		return
	}
	label := "false"
	if qualified {
		label = "true"
	}
	m.upsertsTotal.WithLabelValues(label).Inc()
}

func (m *LeadMetrics) ObserveScheduled(timing, channel string) {
	if m == nil {
		return
	}
	m.scheduledTotal.WithLabelValues(timing, channel).Inc()
}

func (m *LeadMetrics) ObserveDispatch(channel, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(channel, status).Inc()
	m.dispatchSeconds.Observe(seconds)
}
