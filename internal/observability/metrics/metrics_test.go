package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQuoteMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQuoteMetrics(reg)
	m.ObserveEstimate("landing", true)
	m.ObserveEstimate("landing", true)
	m.ObserveSubmission("landing", "notified")
	m.ObserveNotification("lead", "sent", 0.25)
	m.ObserveContact("accepted")
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.estimatesTotal.WithLabelValues("landing", "true")); got != 2 {
		t.Fatalf("expected 2 estimates, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("landing", "notified")); got != 1 {
		t.Fatalf("expected 1 submission, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("lead", "sent")); got != 1 {
		t.Fatalf("expected 1 notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("expected 3 active sessions, got %v", got)
	}
}

func TestQuoteMetricsNilSafe(t *testing.T) {
	var m *QuoteMetrics
	m.ObserveEstimate("landing", false)
	m.ObserveSubmission("landing", "rejected")
	m.ObserveNotification("contact", "failed", 1)
	m.ObserveContact("invalid")
	m.SetActiveSessions(1)
}

func TestQuoteMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewQuoteMetrics(reg)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	NewQuoteMetrics(reg)
}
