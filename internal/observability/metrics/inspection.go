package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics tracks comparisons, similarity checks and session state.
type InspectionMetrics struct {
	Comparisons      *prometheus.CounterVec
	NewRegions       prometheus.Counter
	SimilarityScores prometheus.Histogram
	SimilarityLevels *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	StateTransitions *prometheus.CounterVec
}

// NewInspectionMetrics creates and registers inspection metrics.
func NewInspectionMetrics(registry prometheus.Registerer) (*InspectionMetrics, error) {
	m := &InspectionMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register inspection metrics: %w", err)
	}
	return m, nil
}

func (m *InspectionMetrics) initMetrics() {
	m.Comparisons = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_comparisons_total",
		Help: "Total number of pickup/return comparisons by outcome.",
	}, []string{"outcome"})

	m.NewRegions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inspector_new_damage_regions_total",
		Help: "Total number of regions classified as new damage.",
	})

	m.SimilarityScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inspector_similarity_score",
		Help:    "Distribution of vehicle similarity scores.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.SimilarityLevels = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_similarity_level_total",
		Help: "Similarity checks by advisory level.",
	}, []string{"level"})

	m.ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inspector_active_sessions",
		Help: "Number of inspection sessions held in memory.",
	})

	m.StateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inspector_session_transitions_total",
		Help: "Session state transitions by target state.",
	}, []string{"state"})
}

// RecordComparison counts a finished comparison and the new regions it found.
func (m *InspectionMetrics) RecordComparison(outcome string, newRegions int) {
	if m == nil {
		return
	}
	m.Comparisons.WithLabelValues(outcome).Inc()
	m.NewRegions.Add(float64(newRegions))
}

// ObserveSimilarity records a similarity score and its level.
func (m *InspectionMetrics) ObserveSimilarity(score float64, level string) {
	if m == nil {
		return
	}
	m.SimilarityScores.Observe(score)
	m.SimilarityLevels.WithLabelValues(level).Inc()
}

// SetActiveSessions updates the session gauge.
func (m *InspectionMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// RecordTransition counts a session entering state.
func (m *InspectionMetrics) RecordTransition(state string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(state).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *InspectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Comparisons.Collect(ch)
	m.NewRegions.Collect(ch)
	m.SimilarityScores.Collect(ch)
	m.SimilarityLevels.Collect(ch)
	m.ActiveSessions.Collect(ch)
	m.StateTransitions.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *InspectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Comparisons.Describe(ch)
	m.NewRegions.Describe(ch)
	m.SimilarityScores.Describe(ch)
	m.SimilarityLevels.Describe(ch)
	m.ActiveSessions.Describe(ch)
	m.StateTransitions.Describe(ch)
}
