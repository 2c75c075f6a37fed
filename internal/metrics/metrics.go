package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// Metrics provides observability for the subscription intake service.
type Metrics struct {
	// Subscribe outcomes: created, fallback, invalid
	Subscriptions *prometheus.CounterVec

	// Unsubscribe outcomes: removed, absent, fallback, invalid
	Unsubscriptions *prometheus.CounterVec

	// Detached notification results by kind and status
	Notifications *prometheus.CounterVec

	// Directory store latency by operation
	StoreLatency *prometheus.HistogramVec
}

var _ subscription.Recorder = (*Metrics)(nil)

// New registers the intake metrics with reg. A nil reg uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Subscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_subscriptions_total",
			Help: "Total subscribe requests by outcome",
		}, []string{"outcome"}),

		Unsubscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_unsubscriptions_total",
			Help: "Total unsubscribe requests by outcome",
		}, []string{"outcome"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_notifications_total",
			Help: "Notification attempts by kind and status",
		}, []string{"kind", "status"}), // status: "sent", "failed"

		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_store_duration_seconds",
			Help:    "Duration of directory store operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
	}
}

// SubscribeOutcome counts a subscribe request.
func (m *Metrics) SubscribeOutcome(outcome string) {
	if m != nil {
		m.Subscriptions.WithLabelValues(outcome).Inc()
	}
}

// UnsubscribeOutcome counts an unsubscribe request.
func (m *Metrics) UnsubscribeOutcome(outcome string) {
	if m != nil {
		m.Unsubscriptions.WithLabelValues(outcome).Inc()
	}
}

// NotificationSent counts a finished notification attempt.
func (m *Metrics) NotificationSent(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.Notifications.WithLabelValues(kind, status).Inc()
}

// ObserveStore records the time since start for a store operation.
func (m *Metrics) ObserveStore(op string, start time.Time) {
	if m != nil {
		m.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
