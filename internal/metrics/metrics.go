package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsDelivered prometheus.Counter
	NotificationsFailed    prometheus.Counter
	PushLatency            prometheus.Histogram
	RetrySweepCycles       prometheus.Counter
	RetrySweepItems        prometheus.Counter
	CallbackValidations    *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct. Using a custom registry (instead
// of prometheus.DefaultRegisterer) keeps tests isolated and avoids global
// state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppns_notifications_delivered_total",
			Help: "Total number of notifications successfully pushed to a subscriber callback by the retry sweeper.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppns_notifications_failed_total",
			Help: "Total number of notifications that exhausted their retry window.",
		}),
		PushLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ppns_push_latency_seconds",
			Help:    "Latency of a single push gateway call, successful or not.",
			Buckets: prometheus.DefBuckets,
		}),
		RetrySweepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppns_retry_sweep_cycles_total",
			Help: "Total number of completed retry sweep cycles.",
		}),
		RetrySweepItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppns_retry_sweep_items_total",
			Help: "Total number of notifications evaluated across all retry sweep cycles.",
		}),
		CallbackValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppns_callback_validations_total",
			Help: "Total number of callback URL validation attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.NotificationsDelivered,
		m.NotificationsFailed,
		m.PushLatency,
		m.RetrySweepCycles,
		m.RetrySweepItems,
		m.CallbackValidations,
	)

	return m
}
