package observability

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *CounterVec

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	progressEvents *CounterVec
	busFailures    *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled reports METRICS_ENABLED. Metrics are on by default.
func Enabled() bool { return envutil.Bool("METRICS_ENABLED", true) }

// Current returns the process-wide registry, or nil before Init.
func Current() *Metrics { return instance }

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered registry; tests use it directly.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cm_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cm_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("cm_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounterVec("cm_api_errors_total", "API error responses by code.", []string{"code"}),
		aggregateOps: NewHistogramVec(
			"cm_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"operation", "status"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),
		aggregateConflicts: NewCounterVec("cm_aggregate_conflicts_total", "Aggregate writes ending in conflict.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("cm_aggregate_retryable_total", "Aggregate writes ending in a retryable error.", []string{"operation"}),
		progressEvents:     NewCounterVec("cm_progress_events_total", "Progress domain events by kind.", []string{"event"}),
		busFailures:        NewCounterVec("cm_realtime_publish_failures_total", "Realtime publish failures by event.", []string{"event"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiErrors,
		m.aggregateOps,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.progressEvents,
		m.busFailures,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

// CountAPI records a request without a latency sample. Long-lived streams
// use it so their connection time stays out of the histogram.
func (m *Metrics) CountAPI(method, route, status string) {
	if m != nil {
		m.apiRequests.Inc(method, route, status)
	}
}

func (m *Metrics) APIRequestCount(method, route, status string) float64 {
	if m == nil {
		return 0
	}
	return m.apiRequests.Value(method, route, status)
}

func (m *Metrics) APILatencyCount(method, route string) uint64 {
	if m == nil {
		return 0
	}
	return m.apiLatency.Count(method, route)
}

func (m *Metrics) APIInflight() float64 {
	if m == nil {
		return 0
	}
	return m.apiInflight.Value()
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) IncAPIError(code string) {
	if m != nil {
		m.apiErrors.Inc(strings.TrimSpace(code))
	}
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m != nil {
		m.aggregateOps.Observe(dur.Seconds(), op, status)
	}
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m != nil {
		m.aggregateConflicts.Inc(op)
	}
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m != nil {
		m.aggregateRetries.Inc(op)
	}
}

// IncProgressEvent counts lesson toggles, completions and certificate issues.
func (m *Metrics) IncProgressEvent(event string) {
	if m != nil {
		m.progressEvents.Inc(event)
	}
}

func (m *Metrics) ProgressEventCount(event string) float64 {
	if m == nil {
		return 0
	}
	return m.progressEvents.Value(event)
}

func (m *Metrics) IncPublishFailure(event string) {
	if m != nil {
		m.busFailures.Inc(event)
	}
}

func (m *Metrics) AggregateOperationCount(op, status string) uint64 {
	if m == nil {
		return 0
	}
	return m.aggregateOps.Count(op, status)
}
