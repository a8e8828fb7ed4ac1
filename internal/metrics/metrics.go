// Package metrics exposes a Prometheus registry for the orchestration
// pipeline: project/build counters, provider request latency, tool-call
// and heal-loop counters, and the usual HTTP surface metrics.
//
// Grounded on internal/metrics/metrics.go; the grouping (domain
// counters, provider metrics, system/HTTP metrics) and the
// promauto/GaugeVec-CounterVec-HistogramVec shape carry over unchanged,
// repointed from the bead/agent/workflow domain to projects, builds,
// and heals.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric appgen exposes.
type Metrics struct {
	// Project metrics
	ProjectsTotal  *prometheus.GaugeVec
	ProjectStatus  *prometheus.GaugeVec
	TasksTotal     *prometheus.CounterVec
	ErrorsOpen     *prometheus.GaugeVec
	ErrorsResolved *prometheus.CounterVec

	// Build/heal metrics
	BuildsTotal     *prometheus.CounterVec
	BuildDuration   prometheus.Histogram
	HealAttempts    *prometheus.CounterVec
	HealResolved    *prometheus.CounterVec
	HealExhausted   prometheus.Counter

	// Backend process metrics
	BackendsRunning prometheus.Gauge
	BackendRestarts *prometheus.CounterVec

	// Provider/tool metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	ProviderTokens   *prometheus.CounterVec
	ToolCallsTotal   *prometheus.CounterVec
	ToolLoopLength   prometheus.Histogram

	// System metrics
	DatabaseConnections prometheus.Gauge
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers every metric exactly once; repeated
// calls return the same shared registry.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ProjectsTotal: promauto.NewGaugeVec(
				prometheus.GaugeOpts{Name: "appgen_projects_total", Help: "Total number of projects"},
				[]string{"status"},
			),
			ProjectStatus: promauto.NewGaugeVec(
				prometheus.GaugeOpts{Name: "appgen_project_status", Help: "Project status (1 for current state, 0 otherwise)"},
				[]string{"project_id", "status"},
			),
			TasksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_tasks_total", Help: "Total number of tasks created"},
				[]string{"project_id", "priority"},
			),
			ErrorsOpen: promauto.NewGaugeVec(
				prometheus.GaugeOpts{Name: "appgen_errors_open", Help: "Number of currently open error records"},
				[]string{"project_id", "kind"},
			),
			ErrorsResolved: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_errors_resolved_total", Help: "Total number of error records resolved"},
				[]string{"project_id", "kind"},
			),

			BuildsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_builds_total", Help: "Total number of preview builds run"},
				[]string{"project_id", "success"},
			),
			BuildDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "appgen_build_duration_seconds",
					Help:    "Preview build wall-clock duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~256s
				},
			),
			HealAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_heal_attempts_total", Help: "Total number of auto-heal loop rounds"},
				[]string{"project_id"},
			),
			HealResolved: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_heal_resolved_total", Help: "Total number of errors resolved by auto-heal"},
				[]string{"project_id"},
			),
			HealExhausted: promauto.NewCounter(
				prometheus.CounterOpts{Name: "appgen_heal_exhausted_total", Help: "Total number of heal passes that hit the attempt cap with errors still open"},
			),

			BackendsRunning: promauto.NewGauge(
				prometheus.GaugeOpts{Name: "appgen_backends_running", Help: "Number of currently running per-project backend processes"},
			),
			BackendRestarts: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_backend_restarts_total", Help: "Total number of backend process restarts"},
				[]string{"project_id"},
			),

			ProviderRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_provider_requests_total", Help: "Total number of model provider requests"},
				[]string{"model", "success"},
			),
			ProviderErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_provider_errors_total", Help: "Total number of model provider errors"},
				[]string{"model", "error_type"},
			),
			ProviderLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "appgen_provider_request_duration_seconds",
					Help:    "Model provider request duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
				},
				[]string{"model"},
			),
			ProviderTokens: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_provider_tokens_total", Help: "Total tokens processed by the model provider"},
				[]string{"model", "type"},
			),
			ToolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_tool_calls_total", Help: "Total number of tool invocations dispatched"},
				[]string{"tool", "success"},
			),
			ToolLoopLength: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "appgen_tool_loop_iterations",
					Help:    "Model round-trips taken per tool-calling loop",
					Buckets: prometheus.LinearBuckets(1, 1, 5), // 1..5, matching the iteration cap
				},
			),

			DatabaseConnections: promauto.NewGauge(
				prometheus.GaugeOpts{Name: "appgen_database_connections", Help: "Number of active database connections"},
			),
			CacheHits: promauto.NewCounter(
				prometheus.CounterOpts{Name: "appgen_cache_hits_total", Help: "Total number of context snapshot cache hits"},
			),
			CacheMisses: promauto.NewCounter(
				prometheus.CounterOpts{Name: "appgen_cache_misses_total", Help: "Total number of context snapshot cache misses"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{Name: "appgen_http_requests_total", Help: "Total number of HTTP requests"},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "appgen_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
		}
	})

	return sharedMetrics
}

// RecordProviderRequest records one model provider call's outcome,
// latency, and token usage.
func (m *Metrics) RecordProviderRequest(model string, success bool, latencyMs int64, tokens int64) {
	successStr := "false"
	if success {
		successStr = "true"
	}
	m.ProviderRequests.WithLabelValues(model, successStr).Inc()
	m.ProviderLatency.WithLabelValues(model).Observe(float64(latencyMs) / 1000.0)
	if tokens > 0 {
		m.ProviderTokens.WithLabelValues(model, "total").Add(float64(tokens))
	}
}

// RecordToolCall records one dispatched tool invocation's outcome.
func (m *Metrics) RecordToolCall(tool string, success bool) {
	successStr := "false"
	if success {
		successStr = "true"
	}
	m.ToolCallsTotal.WithLabelValues(tool, successStr).Inc()
}

// RecordHTTPRequest records one HTTP request's outcome and duration.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
