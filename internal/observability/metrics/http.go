package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for API handlers.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadBytes     prometheus.Histogram
}

// NewHTTPMetrics creates and registers HTTP handler metrics.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	// path is the route template, never the raw URL, to bound cardinality
	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inspector_http_request_duration_seconds",
		Help:    "Time taken for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.uploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inspector_upload_size_bytes",
		Help:    "Size of uploaded images.",
		Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
	})
}

// RecordRequest records one handled request.
func (m *HTTPMetrics) RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// ObserveUpload records the size of an uploaded image.
func (m *HTTPMetrics) ObserveUpload(sizeBytes int) {
	if m == nil {
		return
	}
	m.uploadBytes.Observe(float64(sizeBytes))
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.uploadBytes.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.uploadBytes.Describe(ch)
}
