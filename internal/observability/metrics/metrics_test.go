package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLeadMetricsObserve(t *testing.T) {
	m := NewLeadMetrics(prometheus.NewRegistry())
	m.ObserveUpsert(true)
	m.ObserveUpsert(false)
	m.ObserveScheduled("3d", "email")
	m.ObserveDispatch("email", "sent", 0.2)
}

func TestLeadMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)
	m.ObserveDispatch("sms", "failed", 1.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families")
	}
}

func TestLeadMetricsNilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveUpsert(true)
	m.ObserveScheduled("7d", "whatsapp")
	m.ObserveDispatch("email", "sent", 0.1)
}
