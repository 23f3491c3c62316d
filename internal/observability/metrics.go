package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec
	evaluationRuns    *prometheus.CounterVec
	quotaDecisions    *prometheus.CounterVec
	evaluationEvents  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API layer.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptcoach_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptcoach_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptcoach_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptcoach_evaluation_runs_total",
			Help: "Evaluation runs handled by the service, by outcome of persisting them.",
		}, []string{"source", "status"})

		quotaDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptcoach_quota_decisions_total",
			Help: "Daily token quota checks, by decision.",
		}, []string{"decision"})

		evaluationEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptcoach_evaluation_events_total",
			Help: "Evaluation events published to the message bus.",
		}, []string{"status"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, evaluationRuns, quotaDecisions, evaluationEvents)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// EvaluationRuns exposes the counter for evaluation runs.
func EvaluationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationRuns
}

// QuotaDecisions exposes the counter for quota checks.
func QuotaDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return quotaDecisions
}

// EvaluationEvents exposes the counter for published evaluation events.
func EvaluationEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationEvents
}
