package metrics

import (
	"runtime"
	"time"
)

// RecordAnalysis records one full pipeline run
func (r *Registry) RecordAnalysis(status string, duration time.Duration) {
	r.AnalysesTotal.WithLabelValues(status).Inc()
	r.AnalysisDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage execution
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFinding counts one emitted finding
func (r *Registry) RecordFinding(kind string) {
	r.FindingsTotal.WithLabelValues(kind).Inc()
}

// RecordRiskScore records one IC's risk score
func (r *Registry) RecordRiskScore(criticality string, risk float64) {
	r.RiskScore.WithLabelValues(criticality).Observe(risk)
}

// RecordFlag counts one layout hazard flag
func (r *Registry) RecordFlag(kind string) {
	r.FlagsTotal.WithLabelValues(kind).Inc()
}

// RecordClassification counts one classified capacitor
func (r *Registry) RecordClassification(function string) {
	r.CapacitorsByFunc.WithLabelValues(function).Inc()
}

// UpdateGraphMetrics updates the last-analyzed-graph gauges
func (r *Registry) UpdateGraphMetrics(components, nets, edges, ics int) {
	r.GraphComponentsTotal.Set(float64(components))
	r.GraphNetsTotal.Set(float64(nets))
	r.GraphEdgesTotal.Set(float64(edges))
	r.GraphICsTotal.Set(float64(ics))
}

// UpdateSystemMetrics refreshes the runtime gauges
func (r *Registry) UpdateSystemMetrics(startedAt time.Time) {
	r.UptimeSeconds.Set(time.Since(startedAt).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
