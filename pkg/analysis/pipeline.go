// Package analysis runs the full pipeline over a schematic snapshot and
// optional board: graph construction, connectivity checks, voltage
// propagation, capacitor classification, decoupling grouping, and
// decoupling risk scoring. The pipeline is deterministic: the same
// snapshot always yields the same report.
package analysis

import (
	"time"

	"github.com/dd0wney/cluso-circuit/pkg/capclass"
	"github.com/dd0wney/cluso-circuit/pkg/circuit"
	"github.com/dd0wney/cluso-circuit/pkg/config"
	"github.com/dd0wney/cluso-circuit/pkg/decoupling"
	"github.com/dd0wney/cluso-circuit/pkg/drs"
	"github.com/dd0wney/cluso-circuit/pkg/logging"
	"github.com/dd0wney/cluso-circuit/pkg/metrics"
	"github.com/dd0wney/cluso-circuit/pkg/pcb"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
	"github.com/dd0wney/cluso-circuit/pkg/voltage"
)

// Report is the complete analysis output for one snapshot.
type Report struct {
	Name             string                   `json:"name"`
	Stats            circuit.Stats            `json:"stats"`
	Connectivity     *Connectivity            `json:"connectivity"`
	Voltage          *voltage.Result          `json:"voltage"`
	Classifications  []capclass.Classification `json:"classifications"`
	DecouplingGroups []decoupling.Group       `json:"decoupling_groups"`
	RiskScores       []drs.ICRiskScore        `json:"risk_scores,omitempty"`
}

// Pipeline wires the analysis stages together.
type Pipeline struct {
	cfg     config.Config
	log     logging.Logger
	metrics *metrics.Registry
}

// NewPipeline creates a pipeline. A nil logger disables logging; a nil
// registry disables metrics.
func NewPipeline(cfg config.Config, log logging.Logger, reg *metrics.Registry) *Pipeline {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Pipeline{cfg: cfg, log: log, metrics: reg}
}

// Run analyzes a schematic snapshot. The board may be nil, in which case
// the physical stages (risk scoring) are skipped and decoupling grouping
// works from schematic positions alone.
func (p *Pipeline) Run(s *schema.Schematic, board *pcb.Design) *Report {
	started := time.Now()
	report := &Report{Name: s.Name}

	g := p.stageGraph(s, report)
	p.stageConnectivity(g, report)
	p.stageVoltage(g, report)
	p.stageClassify(s, report)
	p.stageDecoupling(g, report)
	if board != nil {
		p.stageRisk(s, board, report)
	}

	if p.metrics != nil {
		p.metrics.RecordAnalysis("ok", time.Since(started))
	}
	p.log.Info("analysis complete",
		logging.String("schematic", s.Name),
		logging.Count(len(report.Voltage.Findings)),
		logging.Latency(time.Since(started)))
	return report
}

func (p *Pipeline) stageGraph(s *schema.Schematic, report *Report) *circuit.Graph {
	timer := logging.StartTimer(p.log, "graph construction", logging.Stage("graph"))
	g := circuit.FromSchematic(s)
	timer.End()

	report.Stats = g.Stats()
	if p.metrics != nil {
		p.metrics.UpdateGraphMetrics(report.Stats.Components, report.Stats.Nets,
			report.Stats.Edges, report.Stats.ICs)
	}
	return g
}

func (p *Pipeline) stageConnectivity(g *circuit.Graph, report *Report) {
	defer p.observeStage("connectivity")(time.Now())
	report.Connectivity = AnalyzeConnectivity(g)
}

func (p *Pipeline) stageVoltage(g *circuit.Graph, report *Report) {
	defer p.observeStage("voltage")(time.Now())
	report.Voltage = voltage.NewEngine(p.cfg.Voltage, p.log).Run(g)

	if p.metrics != nil {
		for _, f := range report.Voltage.Findings {
			p.metrics.RecordFinding(string(f.Kind))
		}
	}
}

func (p *Pipeline) stageClassify(s *schema.Schematic, report *Report) {
	defer p.observeStage("classify")(time.Now())
	report.Classifications = capclass.New(p.log).ClassifyAll(s)

	if p.metrics != nil {
		for _, c := range report.Classifications {
			p.metrics.RecordClassification(string(c.Function))
		}
	}
}

func (p *Pipeline) stageDecoupling(g *circuit.Graph, report *Report) {
	defer p.observeStage("decoupling")(time.Now())
	report.DecouplingGroups = decoupling.NewAnalyzer(p.log).
		WithMaxDistance(p.cfg.Decoupling.MaxDistanceMM).
		GroupsFromGraph(g, report.Classifications)
}

func (p *Pipeline) stageRisk(s *schema.Schematic, board *pcb.Design, report *Report) {
	defer p.observeStage("risk")(time.Now())
	report.RiskScores = drs.NewEngine(nil, p.log).Analyze(s, board, report.DecouplingGroups)

	if p.metrics != nil {
		for _, sc := range report.RiskScores {
			p.metrics.RecordRiskScore(string(sc.Criticality), sc.Risk)
			for _, f := range sc.Flags {
				p.metrics.RecordFlag(string(f.Kind))
			}
		}
	}
}

// observeStage returns a deferred-friendly closure recording the stage
// duration to metrics.
func (p *Pipeline) observeStage(stage string) func(time.Time) {
	timer := logging.StartTimer(p.log, stage, logging.Stage(stage))
	return func(start time.Time) {
		timer.End()
		if p.metrics != nil {
			p.metrics.RecordStage(stage, time.Since(start))
		}
	}
}
