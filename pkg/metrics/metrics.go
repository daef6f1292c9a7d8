// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wage_advance_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wage_advance_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	advanceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wage_advance_events_total",
			Help: "Wage advance lifecycle events by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	ledgerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wage_advance_ledger_calls_total",
			Help: "Ledger gateway calls by call and result",
		},
		[]string{"call", "result"},
	)

	ledgerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wage_advance_ledger_call_duration_seconds",
			Help:    "Ledger gateway call latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"call"},
	)

	pollerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wage_advance_poller_operations_total",
			Help: "Operations touched by the confirmation poller",
		},
		[]string{"pass", "result"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Inc()
	httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAdvanceEvent counts a lifecycle stage (request, schedule, decision, transfer) outcome.
func RecordAdvanceEvent(stage, outcome string) {
	advanceEventsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordLedgerCall has the shape of ledger.CallObserver.
func RecordLedgerCall(call string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ledgerCallsTotal.WithLabelValues(call, result).Inc()
	ledgerCallDuration.WithLabelValues(call).Observe(elapsed.Seconds())
}

// RecordPollerResult adds n operations to a poller pass result.
func RecordPollerResult(pass, result string, n int) {
	if n > 0 {
		pollerOperationsTotal.WithLabelValues(pass, result).Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
