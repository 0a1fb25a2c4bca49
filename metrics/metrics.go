package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helpbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpbot_messages_created_total",
			Help: "Messages persisted, by final status",
		},
		[]string{"status"},
	)

	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpbot_ai_requests_total",
			Help: "AI completion attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpbot_webhook_deliveries_total",
			Help: "Webhook delivery attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	// Infrastructure metrics
	StoreUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpbot_store_up",
			Help: "1 if the last store probe succeeded",
		},
	)
)

// Result maps a boolean outcome to a label value.
func Result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
