package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlatformMetrics tracks the money-moving and dispatch hot paths.
type PlatformMetrics struct {
	ledgerOps         *prometheus.CounterVec
	settledTotal      prometheus.Counter
	dispatchPublished *prometheus.CounterVec
	dispatchDropped   *prometheus.CounterVec
	subscribers       prometheus.Gauge
}

// NewPlatformMetrics registers the platform metrics on the provided registerer.
func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	if reg == nil {
		return &PlatformMetrics{}
	}
	ledgerOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_ledger_operations_total",
		Help: "Wallet ledger mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	settledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_transactions_total",
		Help: "Commission settlement transactions persisted.",
	})
	dispatchPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_published_total",
		Help: "Order events published to stall rooms.",
	}, []string{"event"})
	dispatchDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_dropped_total",
		Help: "Order events dropped because a subscriber queue was full.",
	}, []string{"event"})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_subscribers",
		Help: "Currently connected stall display subscribers.",
	})
	reg.MustRegister(ledgerOps, settledTotal, dispatchPublished, dispatchDropped, subscribers)
	return &PlatformMetrics{
		ledgerOps:         ledgerOps,
		settledTotal:      settledTotal,
		dispatchPublished: dispatchPublished,
		dispatchDropped:   dispatchDropped,
		subscribers:       subscribers,
	}
}

// ObserveLedgerOp counts one wallet ledger operation.
func (m *PlatformMetrics) ObserveLedgerOp(operation, outcome string) {
	if m == nil || m.ledgerOps == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, outcome).Inc()
}

// IncSettled counts one persisted settlement transaction.
func (m *PlatformMetrics) IncSettled() {
	if m == nil || m.settledTotal == nil {
		return
	}
	m.settledTotal.Inc()
}

// IncPublished counts one dispatched order event.
func (m *PlatformMetrics) IncPublished(event string) {
	if m == nil || m.dispatchPublished == nil {
		return
	}
	m.dispatchPublished.WithLabelValues(event).Inc()
}

// IncDropped counts one delivery dropped on a saturated subscriber.
func (m *PlatformMetrics) IncDropped(event string) {
	if m == nil || m.dispatchDropped == nil {
		return
	}
	m.dispatchDropped.WithLabelValues(event).Inc()
}

// SubscriberConnected adjusts the live subscriber gauge.
func (m *PlatformMetrics) SubscriberConnected(delta float64) {
	if m == nil || m.subscribers == nil {
		return
	}
	m.subscribers.Add(delta)
}
