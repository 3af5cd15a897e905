// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the richieat API server.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPBuckets defines histogram buckets suited for CRUD request latencies,
// ranging from 5ms to 10s.
var HTTPBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, route pattern, and
	// status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "richieat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and
	// route pattern.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "richieat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: HTTPBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "richieat_http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// SecurityEventsTotal counts events flagged by the security log stage.
	SecurityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "richieat_security_events_total",
			Help: "Security events flagged by kind",
		},
		[]string{"kind"},
	)

	// AuthAttemptsTotal counts login and registration attempts by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "richieat_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"operation", "outcome"},
	)

	// DatabaseUp is 1 while the storage backend answers health checks.
	DatabaseUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "richieat_database_up",
			Help: "Whether the database is reachable",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		SecurityEventsTotal,
		AuthAttemptsTotal,
		DatabaseUp,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
