package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcome label values.
const (
	OutcomeDelivered = "delivered"
	OutcomePermanent = "permanent_failure"
	OutcomeTransient = "transient_failure"
	OutcomeSkipped   = "skipped"
)

// Metrics holds Prometheus metrics for the push service
type Metrics struct {
	DeliveryAttempts     *prometheus.CounterVec
	NotificationsCreated prometheus.Counter
	EndpointsEvicted     prometheus.Counter
	BroadcastRecipients  prometheus.Histogram
	OnlineSessions       prometheus.Gauge
}

// New creates a metrics instance registered against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DeliveryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push",
				Name:      "delivery_attempts_total",
				Help:      "Push delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		NotificationsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "push",
				Name:      "notifications_created_total",
				Help:      "Notification records created",
			},
		),
		EndpointsEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "push",
				Name:      "endpoints_evicted_total",
				Help:      "Endpoints evicted after a permanent transport failure",
			},
		),
		BroadcastRecipients: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "push",
				Name:      "broadcast_recipients",
				Help:      "Recipients attempted per broadcast",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		OnlineSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "presence",
				Name:      "online_sessions",
				Help:      "Sessions currently tracked as online or away",
			},
		),
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
