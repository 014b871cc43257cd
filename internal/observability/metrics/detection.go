// Package metrics provides custom Prometheus metrics for the inspector components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Detection request outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeServiceError  = "service_error"
	OutcomeNotConfigured = "not_configured"
	OutcomeInvalidInput  = "invalid_input"
)

// DetectionMetrics contains Prometheus metrics for remote inference calls.
type DetectionMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RemoteStatus    *prometheus.CounterVec
	RegionsPerImage prometheus.Histogram
}

// NewDetectionMetrics creates and registers detection metrics.
func NewDetectionMetrics(registry prometheus.Registerer) (*DetectionMetrics, error) {
	m := &DetectionMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register detection metrics: %w", err)
	}
	return m, nil
}

func (m *DetectionMetrics) initMetrics() {
	m.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_detection_requests_total",
		Help: "Total number of detection requests by outcome.",
	}, []string{"outcome"})

	m.RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inspector_detection_request_duration_seconds",
		Help:    "Round-trip time of remote detection calls.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	m.RemoteStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_detection_remote_status_total",
		Help: "HTTP status codes returned by the detection service.",
	}, []string{"code"})

	m.RegionsPerImage = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inspector_detection_regions_per_image",
		Help:    "Number of regions returned per analyzed image.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
}

// RecordRequest counts a finished detection request. Safe on a nil receiver.
func (m *DetectionMetrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

// ObserveRemoteCall records the duration and status of one outbound call.
// A zero status means the call failed before a response arrived.
func (m *DetectionMetrics) ObserveRemoteCall(statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(durationSeconds)
	code := "transport_error"
	if statusCode > 0 {
		code = fmt.Sprintf("%d", statusCode)
	}
	m.RemoteStatus.WithLabelValues(code).Inc()
}

// ObserveRegions records how many regions one image produced.
func (m *DetectionMetrics) ObserveRegions(count int) {
	if m == nil {
		return
	}
	m.RegionsPerImage.Observe(float64(count))
}

// Collect implements the prometheus.Collector interface.
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Requests.Collect(ch)
	m.RequestDuration.Collect(ch)
	m.RemoteStatus.Collect(ch)
	m.RegionsPerImage.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Requests.Describe(ch)
	m.RequestDuration.Describe(ch)
	m.RemoteStatus.Describe(ch)
	m.RegionsPerImage.Describe(ch)
}
