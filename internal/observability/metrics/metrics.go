package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConciergeMetrics exposes counters/histograms for the chat consultation flow.
type ConciergeMetrics struct {
	turnsTotal        *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	auditDropsTotal   prometheus.Counter
}

func NewConciergeMetrics(reg prometheus.Registerer) *ConciergeMetrics {
	m := &ConciergeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by mode and outcome",
		}, []string{"mode", "outcome"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "generation_latency_seconds",
			Help:      "Latency of text generation calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		auditDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "audit_drops_total",
			Help:      "Audit writes dropped after failure",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.generationLatency, m.auditDropsTotal)
	return m
}

func (m *ConciergeMetrics) ObserveTurn(mode, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *ConciergeMetrics) ObserveGenerationLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.generationLatency.WithLabelValues(mode).Observe(seconds)
}

func (m *ConciergeMetrics) ObserveAuditDrop() {
	if m == nil {
		return
	}
	m.auditDropsTotal.Inc()
}

// TrackerMetrics exposes counters for the marketing event tracker.
type TrackerMetrics struct {
	eventsTotal      *prometheus.CounterVec
	rateLimitedTotal prometheus.Counter
	silentErrorTotal prometheus.Counter
}

func NewTrackerMetrics(reg prometheus.Registerer) *TrackerMetrics {
	m := &TrackerMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "marketing",
			Name:      "events_total",
			Help:      "Total tracked marketing events by name and device type",
		}, []string{"event", "device"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "marketing",
			Name:      "rate_limited_total",
			Help:      "Tracking requests rejected by the rate limiter",
		}),
		silentErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "marketing",
			Name:      "silent_errors_total",
			Help:      "Tracking inserts that failed and were swallowed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.rateLimitedTotal, m.silentErrorTotal)
	return m
}

func (m *TrackerMetrics) ObserveEvent(event, device string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event, device).Inc()
}

func (m *TrackerMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

func (m *TrackerMetrics) ObserveSilentError() {
	if m == nil {
		return
	}
	m.silentErrorTotal.Inc()
}
