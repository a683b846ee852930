// Package metrics exposes Prometheus instrumentation for the DRC engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soc-pilot/drc/internal/result"
)

// Metrics is the collection of DRC metrics. It implements checker.Observer.
type Metrics struct {
	ChecksTotal         *prometheus.CounterVec
	CheckDuration       prometheus.Histogram
	FindingsTotal       *prometheus.CounterVec
	RuleDuration        *prometheus.HistogramVec
	RuleFailures        *prometheus.CounterVec
	StoreErrors         *prometheus.CounterVec
	LibraryReloads      *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}

	m.ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drc_checks_total",
			Help: "Total number of completed design rule checks",
		},
		[]string{"passed", "complete"},
	)
	m.CheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drc_check_duration_seconds",
			Help:    "Duration of design rule checks in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)
	m.FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drc_findings_total",
			Help: "Total number of rule findings by severity",
		},
		[]string{"severity"},
	)
	m.RuleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drc_rule_duration_seconds",
			Help:    "Duration of individual rule evaluations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
		[]string{"rule_id"},
	)
	m.RuleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drc_rule_failures_total",
			Help: "Total number of rules that failed to run",
		},
		[]string{"rule_id"},
	)
	m.StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drc_store_errors_total",
			Help: "Total number of report store errors",
		},
		[]string{"op"},
	)
	m.LibraryReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drc_library_reloads_total",
			Help: "Total number of component library reloads",
		},
		[]string{"status"},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reg.MustRegister(
		m.ChecksTotal, m.CheckDuration, m.FindingsTotal,
		m.RuleDuration, m.RuleFailures, m.StoreErrors, m.LibraryReloads,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// RuleEvaluated records one rule run.
func (m *Metrics) RuleEvaluated(ruleID string, elapsed time.Duration, failed bool) {
	m.RuleDuration.WithLabelValues(ruleID).Observe(elapsed.Seconds())
	if failed {
		m.RuleFailures.WithLabelValues(ruleID).Inc()
	}
}

// CheckCompleted records a finished report.
func (m *Metrics) CheckCompleted(res *result.DRCResult) {
	m.ChecksTotal.WithLabelValues(boolLabel(res.Passed), boolLabel(res.Complete)).Inc()
	m.CheckDuration.Observe(float64(res.DurationMs) / 1000)
	m.FindingsTotal.WithLabelValues(string(result.Critical)).Add(float64(res.Summary.Critical))
	m.FindingsTotal.WithLabelValues(string(result.Warning)).Add(float64(res.Summary.Warning))
	m.FindingsTotal.WithLabelValues(string(result.Info)).Add(float64(res.Summary.Info))
}

// StoreError counts a failed store operation (get, put, delete).
func (m *Metrics) StoreError(op string) {
	m.StoreErrors.WithLabelValues(op).Inc()
}

// LibraryReloaded counts a component library reload attempt.
func (m *Metrics) LibraryReloaded(_ int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LibraryReloads.WithLabelValues(status).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
