package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes the application-level counters published on /metrics.
type Metrics struct {
	webhookEvents    *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "printforge",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by provider, canonical event type and outcome.",
		}, []string{"provider", "event_type", "outcome"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "printforge",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions created by order kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.webhookEvents, m.checkoutSessions)
	return m
}

func (m *Metrics) ObserveWebhook(provider, eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(provider, eventType, outcome).Inc()
}

func (m *Metrics) ObserveCheckoutSession(kind string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(kind).Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(func() *Metrics {
		return New(prometheus.DefaultRegisterer)
	}),
)
