// Package metrics exposes Prometheus collectors for ledger operations and
// boundary calls.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	historyDepth    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"op", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Requests to external services by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Latency of requests to external services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		historyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_depth",
			Help:      "Number of distributions that can be undone.",
		}),
	}
	reg.MustRegister(m.operations, m.requests, m.requestDuration, m.historyDepth)
	return m
}

// ObserveOperation counts one ledger operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// ObserveRequest records one external request. A code of 0 means the request
// never got a response.
func (m *Metrics) ObserveRequest(endpoint string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(endpoint, label).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetHistoryDepth records the current undo depth.
func (m *Metrics) SetHistoryDepth(n int) {
	if m == nil {
		return
	}
	m.historyDepth.Set(float64(n))
}
