package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_analyses_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circuit_analysis_duration_seconds",
			Help:    "Full pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuit_stage_duration_seconds",
			Help:    "Per-stage analysis duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"stage"},
	)

	r.FindingsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_findings_total",
			Help: "Total findings emitted, by kind",
		},
		[]string{"kind"},
	)

	r.RiskScore = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuit_risk_score",
			Help:    "Decoupling risk scores per IC",
			Buckets: []float64{5, 10, 20, 40, 60, 80, 100},
		},
		[]string{"criticality"},
	)

	r.FlagsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_layout_flags_total",
			Help: "Layout hazard flags raised, by kind",
		},
		[]string{"kind"},
	)

	r.CapacitorsByFunc = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_capacitors_classified_total",
			Help: "Capacitors classified, by inferred function",
		},
		[]string{"function"},
	)
}
