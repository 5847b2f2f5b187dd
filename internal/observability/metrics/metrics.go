package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking and checkout flow.
type BookingMetrics struct {
	wizardTransitions *prometheus.CounterVec
	checkoutOutcomes  *prometheus.CounterVec
	settlementLatency *prometheus.HistogramVec
	depositsCollected prometheus.Counter
	statusChanges     *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		wizardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawcare",
			Subsystem: "booking",
			Name:      "wizard_transitions_total",
			Help:      "Wizard actions by name and outcome",
		}, []string{"action", "outcome"}),
		checkoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawcare",
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout attempts by path and outcome",
		}, []string{"path", "outcome"}),
		settlementLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pawcare",
			Subsystem: "checkout",
			Name:      "settlement_latency_seconds",
			Help:      "Latency of simulated settlement",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		depositsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pawcare",
			Subsystem: "checkout",
			Name:      "deposits_collected_cents_total",
			Help:      "Sum of deposits committed, in cents",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawcare",
			Subsystem: "appointments",
			Name:      "status_changes_total",
			Help:      "Appointment lifecycle transitions",
		}, []string{"from", "to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.wizardTransitions, m.checkoutOutcomes, m.settlementLatency, m.depositsCollected, m.statusChanges)
	return m
}

func (m *BookingMetrics) ObserveWizard(action, outcome string) {
	if m == nil {
		return
	}
	m.wizardTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *BookingMetrics) ObserveCheckout(path, outcome string) {
	if m == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(path, outcome).Inc()
}

func (m *BookingMetrics) ObserveSettlement(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.settlementLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) AddDeposit(cents int64) {
	if m == nil || cents <= 0 {
		return
	}
	m.depositsCollected.Add(float64(cents))
}

func (m *BookingMetrics) ObserveStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(from, to).Inc()
}
