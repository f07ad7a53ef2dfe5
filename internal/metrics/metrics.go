// Package metrics exposes Prometheus counters for uploads, cleanup, realtime
// traffic and store failures. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "galeria"

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	uploads         *prometheus.CounterVec
	cleanupFailures *prometheus.CounterVec
	changes         *prometheus.CounterVec
	storeFailures   *prometheus.CounterVec
	sseClients      prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Image uploads by bucket and result.",
		}, []string{"bucket", "result"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_cleanup_failures_total",
			Help:      "Stored objects that could not be removed after their rows were deleted.",
		}, []string{"bucket"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_changes_total",
			Help:      "Change notifications received by table and type.",
		}, []string{"table", "type"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Failed store actions by store and action.",
		}, []string{"store", "action"}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected realtime stream clients.",
		}),
	}

	m.registry.MustRegister(
		m.uploads,
		m.cleanupFailures,
		m.changes,
		m.storeFailures,
		m.sseClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// UploadDone counts an upload attempt.
func (m *Metrics) UploadDone(bucket string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.uploads.WithLabelValues(bucket, result).Inc()
}

// CleanupFailed counts an object left behind after a delete.
func (m *Metrics) CleanupFailed(bucket string) {
	if m == nil {
		return
	}
	m.cleanupFailures.WithLabelValues(bucket).Inc()
}

// ChangeReceived counts a realtime change.
func (m *Metrics) ChangeReceived(table, changeType string) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(table, changeType).Inc()
}

// StoreFailed counts a failed store action.
func (m *Metrics) StoreFailed(store, action string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(store, action).Inc()
}

// SSEClients sets the connected stream client gauge.
func (m *Metrics) SSEClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.Set(float64(n))
}
