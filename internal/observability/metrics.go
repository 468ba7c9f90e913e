package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth decision outcomes.
const (
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionError           = "error"
)

// Metrics holds the Prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	authDecisions *prometheus.CounterVec
	revocations   prometheus.Counter
	sweepRemoved  *prometheus.CounterVec
	storeSize     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finance_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_http_errors_total",
			Help: "HTTP error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_auth_decisions_total",
			Help: "Authorization guard verdicts.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_session_revocations_total",
			Help: "Session tokens added to the revocation store.",
		}),
		sweepRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_session_sweep_removed_total",
			Help: "Expired entries removed by the periodic sweep.",
		}, []string{"store"}),
		storeSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finance_session_store_entries",
			Help: "Entries held by the in-memory session stores after the last sweep.",
		}, []string{"store"}),
	}

	reg.MustRegister(
		m.requests,
		m.latency,
		m.errors,
		m.authDecisions,
		m.revocations,
		m.sweepRemoved,
		m.storeSize,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordAuthDecision counts a guard verdict.
func (m *Metrics) RecordAuthDecision(outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(outcome).Inc()
}

// RecordRevocation counts a token revocation.
func (m *Metrics) RecordRevocation() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

// RecordSweep records one sweep pass over a store.
func (m *Metrics) RecordSweep(store string, removed, remaining int) {
	if m == nil {
		return
	}
	m.sweepRemoved.WithLabelValues(store).Add(float64(removed))
	m.storeSize.WithLabelValues(store).Set(float64(remaining))
}
