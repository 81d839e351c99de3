package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphComponentsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_graph_components_total",
			Help: "Components in the last analyzed graph",
		},
	)

	r.GraphNetsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_graph_nets_total",
			Help: "Nets in the last analyzed graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_graph_edges_total",
			Help: "Connections in the last analyzed graph",
		},
	)

	r.GraphICsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_graph_ics_total",
			Help: "ICs in the last analyzed graph",
		},
	)
}
