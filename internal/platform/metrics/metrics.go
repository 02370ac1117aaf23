package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	SessionsIssued prometheus.Counter
	GateRedirects  *prometheus.CounterVec

	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
	BackendFailures prometheus.Counter

	ViewsRevalidated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics. Methods tolerate a nil
// receiver so tests can run without touching the default registry.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "console_login_attempts_total",
			Help: "Total number of login attempts, labeled by outcome",
		}, []string{"outcome"}),
		SessionsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "console_sessions_issued_total",
			Help: "Total number of session cookie pairs issued",
		}),
		GateRedirects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "console_gate_redirects_total",
			Help: "Total number of access gate denials, labeled by target",
		}, []string{"target"}),
		BackendRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "console_backend_requests_total",
			Help: "Total number of Task Station API calls, labeled by operation and status class",
		}, []string{"operation", "status"}),
		BackendLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_backend_latency_seconds",
			Help:    "Latency of Task Station API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		BackendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "console_backend_failures_total",
			Help: "Total number of Task Station API calls that never produced a response",
		}),
		ViewsRevalidated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "console_views_revalidated_total",
			Help: "Total number of view revalidations triggered by actions, labeled by path",
		}, []string{"path"}),
	}
}

// IncrementLoginAttempts increments the login attempt counter for an outcome.
func (m *Metrics) IncrementLoginAttempts(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// IncrementSessionsIssued increments the issued session counter by 1.
func (m *Metrics) IncrementSessionsIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

// IncrementGateRedirects increments the gate denial counter for a target.
func (m *Metrics) IncrementGateRedirects(target string) {
	if m == nil {
		return
	}
	m.GateRedirects.WithLabelValues(target).Inc()
}

// ObserveBackendCall records one backend call with its latency and status class.
func (m *Metrics) ObserveBackendCall(operation, status string, start time.Time) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(operation, status).Inc()
	m.BackendLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncrementBackendFailures increments the transport failure counter by 1.
func (m *Metrics) IncrementBackendFailures() {
	if m == nil {
		return
	}
	m.BackendFailures.Inc()
}

// IncrementViewsRevalidated increments the revalidation counter for a path.
func (m *Metrics) IncrementViewsRevalidated(path string) {
	if m == nil {
		return
	}
	m.ViewsRevalidated.WithLabelValues(path).Inc()
}
