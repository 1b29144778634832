// Package metrics registers the Prometheus collectors for auditcore.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Metrics holds every auditcore collector, registered on its own registry.
type Metrics struct {
	registry          *prometheus.Registry
	OperationDuration *prometheus.HistogramVec
	PhotoUploads      *prometheus.CounterVec
	Exports           *prometheus.CounterVec
	AutosaveFallbacks prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates a registry with the process collectors and the auditcore
// metrics registered on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditcore_operation_duration_seconds",
			Help:    "Duration of audit service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "result"}),
		PhotoUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditcore_photo_uploads_total",
			Help: "Photo uploads by outcome",
		}, []string{"result"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditcore_exports_total",
			Help: "Generated export artifacts by format and outcome",
		}, []string{"format", "result"}),
		AutosaveFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "auditcore_autosave_fallbacks_total",
			Help: "Autosaves that fell back to the last known status after a failed status read",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditcore_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// Observe records one service operation.
func (m *Metrics) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	m.OperationDuration.WithLabelValues(op, result(success)).Observe(duration.Seconds())
}

// PhotoUpload counts one upload outcome.
func (m *Metrics) PhotoUpload(outcome string) {
	m.PhotoUploads.WithLabelValues(outcome).Inc()
}

// Export counts one export of format.
func (m *Metrics) Export(format string, success bool) {
	m.Exports.WithLabelValues(format, result(success)).Inc()
}

// AutosaveFallback counts one status-read fallback.
func (m *Metrics) AutosaveFallback() {
	m.AutosaveFallbacks.Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, duration time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultError
}
