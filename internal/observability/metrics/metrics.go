package metrics

import "github.com/prometheus/client_golang/prometheus"

// QuoteMetrics exposes counters/histograms for estimate and lead flows.
type QuoteMetrics struct {
	estimatesTotal      *prometheus.CounterVec
	submissionsTotal    *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	notificationLatency *prometheus.HistogramVec
	contactTotal        *prometheus.CounterVec
	activeSessions      prometheus.Gauge
}

func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	m := &QuoteMetrics{
		estimatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitequote",
			Subsystem: "pricing",
			Name:      "estimates_total",
			Help:      "Total stateless estimate requests",
		}, []string{"website_type", "valid"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitequote",
			Subsystem: "quote",
			Name:      "submissions_total",
			Help:      "Total quote submissions by outcome",
		}, []string{"website_type", "outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitequote",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total outbound notifications",
		}, []string{"kind", "status"}),
		notificationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitequote",
			Subsystem: "notify",
			Name:      "notification_latency_seconds",
			Help:      "Latency of outbound notification delivery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		contactTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitequote",
			Subsystem: "contact",
			Name:      "messages_total",
			Help:      "Total contact form submissions",
		}, []string{"status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitequote",
			Subsystem: "session",
			Name:      "active",
			Help:      "Quote sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.estimatesTotal, m.submissionsTotal, m.notificationsTotal, m.notificationLatency, m.contactTotal, m.activeSessions)
	return m
}

func (m *QuoteMetrics) ObserveEstimate(websiteType string, valid bool) {
	if m == nil {
		return
	}
	m.estimatesTotal.WithLabelValues(websiteType, boolLabel(valid)).Inc()
}

// ObserveSubmission records a submit outcome: rejected, notified or notify_failed.
func (m *QuoteMetrics) ObserveSubmission(websiteType, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(websiteType, outcome).Inc()
}

func (m *QuoteMetrics) ObserveNotification(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
	m.notificationLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *QuoteMetrics) ObserveContact(status string) {
	if m == nil {
		return
	}
	m.contactTotal.WithLabelValues(status).Inc()
}

func (m *QuoteMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
