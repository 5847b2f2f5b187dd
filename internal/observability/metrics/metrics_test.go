package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveWizard("next", "ok")
	m.ObserveWizard("next", "ok")
	m.ObserveWizard("continue", "rejected")
	m.ObserveCheckout("paid", "committed")
	m.ObserveSettlement("committed", 0.25)
	m.AddDeposit(6000)
	m.AddDeposit(-5)
	m.ObserveStatusChange("upcoming", "completed")

	if got := testutil.ToFloat64(m.wizardTransitions.WithLabelValues("next", "ok")); got != 2 {
		t.Fatalf("expected 2 next transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.checkoutOutcomes.WithLabelValues("paid", "committed")); got != 1 {
		t.Fatalf("expected 1 committed checkout, got %v", got)
	}
	if got := testutil.ToFloat64(m.depositsCollected); got != 6000 {
		t.Fatalf("expected 6000 cents, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanges.WithLabelValues("upcoming", "completed")); got != 1 {
		t.Fatalf("expected 1 status change, got %v", got)
	}
}

func TestBookingMetricsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveSettlement("declined", 2)
	m.ObserveSettlement("declined", 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "pawcare_checkout_settlement_latency_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	if hist == nil {
		t.Fatalf("settlement histogram not registered")
	}
	if hist.GetSampleCount() != 2 {
		t.Fatalf("expected 2 samples, got %d", hist.GetSampleCount())
	}
	if hist.GetSampleSum() != 3 {
		t.Fatalf("expected sum 3, got %v", hist.GetSampleSum())
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveWizard("next", "ok")
	m.ObserveCheckout("free", "committed")
	m.ObserveSettlement("committed", 0.1)
	m.AddDeposit(100)
	m.ObserveStatusChange("upcoming", "cancelled")
}
