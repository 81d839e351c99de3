package voltage

import (
	"fmt"

	"github.com/dd0wney/cluso-circuit/pkg/circuit"
	"github.com/dd0wney/cluso-circuit/pkg/logging"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
	"github.com/dd0wney/cluso-circuit/pkg/units"
)

// Params are the propagation tuning constants.
type Params struct {
	AnnotationConfidence float64 `yaml:"annotation_confidence" validate:"gt=0,lte=1"`
	RegulatorConfidence  float64 `yaml:"regulator_confidence" validate:"gt=0,lte=1"`
	NameConfidence       float64 `yaml:"name_confidence" validate:"gt=0,lte=1"`
	PassiveDecay         float64 `yaml:"passive_decay" validate:"gt=0,lte=1"`
	ResistorDecay        float64 `yaml:"resistor_decay" validate:"gt=0,lte=1"`
	DiodeDecay           float64 `yaml:"diode_decay" validate:"gt=0,lte=1"`
	DiodeDropVolts       float64 `yaml:"diode_drop_volts" validate:"gte=0"`
	ConflictThreshold    float64 `yaml:"conflict_threshold" validate:"gt=0"`
}

// DefaultParams returns the calibrated constants.
func DefaultParams() Params {
	return Params{
		AnnotationConfidence: 1.0,
		RegulatorConfidence:  0.95,
		NameConfidence:       0.80,
		PassiveDecay:         0.95,
		ResistorDecay:        0.60,
		DiodeDecay:           0.70,
		DiodeDropVolts:       0.7,
		ConflictThreshold:    0.5,
	}
}

// Engine runs voltage propagation over a circuit graph.
type Engine struct {
	params       Params
	log          logging.Logger
	seenFindings map[string]bool
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(params Params, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Engine{params: params, log: log}
}

// Run executes the four propagation phases and returns every net's
// estimate plus validation findings. The input graph is not modified.
func (e *Engine) Run(g *circuit.Graph) *Result {
	res := &Result{Assignments: make(map[string]Assignment)}
	e.seenFindings = make(map[string]bool)

	e.seed(g, res)
	e.propagate(g, res)
	e.detectDividers(g, res)
	e.validate(g, res)

	e.log.Debug("voltage propagation complete",
		logging.Int("assigned_nets", len(res.Nets)),
		logging.Int("findings", len(res.Findings)))
	return res
}

// assign records an estimate and keeps the ordered net list in sync.
func (r *Result) assign(net string, a Assignment) {
	if _, exists := r.Assignments[net]; !exists {
		r.Nets = append(r.Nets, net)
	}
	r.Assignments[net] = a
}

// seed is phase 1: pin ground nets to 0 V, take explicit annotations,
// recognised regulator outputs, power symbols, and voltage-bearing net
// names, in strictly decreasing confidence order so a stronger source is
// never overwritten by a weaker one.
func (e *Engine) seed(g *circuit.Graph, res *Result) {
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindNet {
			continue
		}
		n := node.Net
		switch {
		case n.IsGround():
			res.assign(n.Name, Assignment{
				Volts:      0,
				Confidence: e.params.AnnotationConfidence,
				Provenance: SourceGround,
			})
		case n.VoltageLevel != nil:
			res.assign(n.Name, Assignment{
				Volts:      *n.VoltageLevel,
				Confidence: e.params.AnnotationConfidence,
				Provenance: SourceAnnotation,
			})
		}
	}

	e.seedRegulators(g, res)
	e.seedPowerSymbols(g, res)

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindNet {
			continue
		}
		n := node.Net
		if _, done := res.Assignments[n.Name]; done {
			continue
		}
		if v, ok := units.ParseVoltageNet(n.Name); ok {
			res.assign(n.Name, Assignment{
				Volts:      v,
				Confidence: e.params.NameConfidence,
				Provenance: SourceNameHeuristic,
			})
		}
	}
}

// seedRegulators seeds the output net of every recognised regulator.
func (e *Engine) seedRegulators(g *circuit.Graph, res *Result) {
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent || !node.Component.IsIC() {
			continue
		}
		volts, ok := regulatorVoltage(node.Component)
		if !ok {
			continue
		}
		for _, nb := range g.Neighbors(node.ID) {
			net := g.Node(nb).Net
			if net.IsGround() || !IsRegulatorOutputNet(net.Name) {
				continue
			}
			if existing, done := res.Assignments[net.Name]; done &&
				existing.Confidence >= e.params.RegulatorConfidence {
				continue
			}
			res.assign(net.Name, Assignment{
				Volts:      volts,
				Confidence: e.params.RegulatorConfidence,
				Provenance: SourceRegulator,
			})
			e.log.Debug("regulator output seeded",
				logging.String("regulator", node.Component.RefDes),
				logging.String("net", net.Name),
				logging.Float64("volts", volts))
			break
		}
	}
}

func regulatorVoltage(c *schema.Component) (float64, bool) {
	if v, ok := RegulatorOutputVoltage(c.MPN); ok {
		return v, true
	}
	return RegulatorOutputVoltage(c.Value)
}

// seedPowerSymbols seeds nets driven by virtual power symbols. Placing a
// +3V3 symbol is an explicit assertion, so these seed at annotation
// confidence.
func (e *Engine) seedPowerSymbols(g *circuit.Graph, res *Result) {
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent {
			continue
		}
		c := node.Component
		if !c.IsVirtual && c.Type() != schema.TypePowerSymbol {
			continue
		}
		label := c.Value
		if label == "" {
			label = c.LibID
		}
		v, ok := units.ParseVoltageNet(label)
		if !ok {
			continue
		}
		for _, nb := range g.Neighbors(node.ID) {
			net := g.Node(nb).Net
			if _, done := res.Assignments[net.Name]; done {
				continue
			}
			res.assign(net.Name, Assignment{
				Volts:      v,
				Confidence: e.params.AnnotationConfidence,
				Provenance: SourceAnnotation,
			})
		}
	}
}

// propagate is phase 2: walk estimates across two-terminal passives with
// per-hop confidence decay. ICs, regulators, and transistors block
// propagation. An estimate replaces an existing one only when its
// confidence is strictly higher, which bounds the walk on cyclic
// topologies.
func (e *Engine) propagate(g *circuit.Graph, res *Result) {
	type workItem struct {
		netID circuit.NodeID
	}
	var queue []workItem
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindNet {
			continue
		}
		if _, ok := res.Assignments[node.Net.Name]; ok {
			queue = append(queue, workItem{netID: node.ID})
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		fromNet := g.Node(item.netID).Net
		from, ok := res.Assignments[fromNet.Name]
		if !ok {
			continue
		}

		for _, compID := range g.Neighbors(item.netID) {
			comp := g.Node(compID).Component
			volts, conf, passes := e.across(comp, from)
			if !passes {
				continue
			}
			source := from.SourceNet
			if source == "" {
				source = fromNet.Name
			}
			for _, netID := range g.Neighbors(compID) {
				if netID == item.netID {
					continue
				}
				target := g.Node(netID).Net
				candidate := Assignment{
					Volts:      volts,
					Confidence: conf,
					Provenance: SourcePropagated,
					SourceNet:  source,
				}
				if e.offer(res, target.Name, candidate) {
					queue = append(queue, workItem{netID: netID})
				}
			}
		}
	}
}

// across computes the estimate on the far side of a component, or reports
// that the component blocks propagation.
func (e *Engine) across(c *schema.Component, from Assignment) (volts, conf float64, passes bool) {
	switch c.Type() {
	case schema.TypeCapacitor, schema.TypeInductor:
		return from.Volts, from.Confidence * e.params.PassiveDecay, true
	case schema.TypeResistor:
		return from.Volts, from.Confidence * e.params.ResistorDecay, true
	case schema.TypeDiode, schema.TypeLED:
		return from.Volts - e.params.DiodeDropVolts, from.Confidence * e.params.DiodeDecay, true
	default:
		return 0, 0, false
	}
}

// offer installs a candidate estimate on a net. Returns true when the net
// changed and should be re-queued. Disagreements beyond the conflict
// threshold produce findings; the higher-confidence estimate always wins.
// Ground nets are pinned: a resistor from a rail to ground is a normal
// circuit, not a conflict.
func (e *Engine) offer(res *Result, net string, candidate Assignment) bool {
	existing, ok := res.Assignments[net]
	if !ok {
		res.assign(net, candidate)
		return true
	}
	if existing.Provenance == SourceGround {
		return false
	}

	diff := existing.Volts - candidate.Volts
	if diff < 0 {
		diff = -diff
	}
	if diff > e.params.ConflictThreshold {
		e.addFinding(res, Finding{
			Kind:   FindingConflictingVoltage,
			Net:    net,
			Detail: fmt.Sprintf("estimate %.2fV disagrees with existing %.2fV", candidate.Volts, existing.Volts),
			VoltsA: existing.Volts,
			VoltsB: candidate.Volts,
		})
	}

	if candidate.Confidence > existing.Confidence {
		res.assign(net, candidate)
		return true
	}
	return false
}

// addFinding appends a finding, at most once per (kind, net) pair.
func (e *Engine) addFinding(res *Result, f Finding) {
	key := string(f.Kind) + "|" + f.Net
	if e.seenFindings[key] {
		return
	}
	e.seenFindings[key] = true
	res.Findings = append(res.Findings, f)
}

// detectDividers is phase 3: find two resistors in series between two
// nets that already hold estimates, seeded or propagated, and assign the
// midpoint net its divided voltage. The midpoint must join exactly two
// resistors; a third makes the topology ambiguous. The derived
// confidence is the product of the two source confidences, so it can
// never exceed either source.
func (e *Engine) detectDividers(g *circuit.Graph, res *Result) {
	type leg struct {
		resistor *schema.Component
		ohms     float64
		farNetID circuit.NodeID
		midNetID circuit.NodeID
	}

	resistorsOn := make(map[circuit.NodeID]int)
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent || !node.Component.IsResistor() {
			continue
		}
		counted := make(map[circuit.NodeID]bool)
		for _, nb := range g.Neighbors(node.ID) {
			if !counted[nb] {
				counted[nb] = true
				resistorsOn[nb]++
			}
		}
	}

	// collect two-terminal resistors with parseable values
	var legs []leg
	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent || !node.Component.IsResistor() {
			continue
		}
		nets := g.Neighbors(node.ID)
		if len(nets) != 2 {
			continue
		}
		ohms, ok := units.ParseResistance(node.Component.Value)
		if !ok || ohms <= 0 {
			continue
		}
		legs = append(legs,
			leg{resistor: node.Component, ohms: ohms, farNetID: nets[0], midNetID: nets[1]},
			leg{resistor: node.Component, ohms: ohms, farNetID: nets[1], midNetID: nets[0]})
	}

	for i := range legs {
		for j := range legs {
			top, bot := legs[i], legs[j]
			if top.resistor == bot.resistor || top.midNetID != bot.midNetID {
				continue
			}
			if resistorsOn[top.midNetID] != 2 {
				continue
			}
			highNet := g.Node(top.farNetID).Net
			lowNet := g.Node(bot.farNetID).Net
			midNet := g.Node(top.midNetID).Net

			high, okH := res.Assignments[highNet.Name]
			low, okL := res.Assignments[lowNet.Name]
			if !okH || !okL {
				continue
			}
			if high.Volts <= low.Volts {
				continue
			}

			mid := low.Volts + (high.Volts-low.Volts)*bot.ohms/(top.ohms+bot.ohms)
			conf := high.Confidence * low.Confidence
			if existing, ok := res.Assignments[midNet.Name]; ok {
				if existing.Provenance != SourcePropagated || existing.Confidence >= conf {
					continue
				}
			}
			res.assign(midNet.Name, Assignment{
				Volts:      mid,
				Confidence: conf,
				Provenance: SourceDivider,
				SourceNet:  highNet.Name,
			})
			e.log.Debug("resistor divider detected",
				logging.String("net", midNet.Name),
				logging.String("top", top.resistor.RefDes),
				logging.String("bottom", bot.resistor.RefDes),
				logging.Float64("volts", mid))
		}
	}
}

// validate is phase 4: walk each IC's power pins, flag pins whose rail
// never received an estimate, and flag ICs whose power pins resolve to
// voltages further apart than the conflict threshold. Power rails no IC
// touches still get a net-level unknown-voltage finding. The overvoltage
// finding kind stays unpopulated until component ratings are part of the
// snapshot.
func (e *Engine) validate(g *circuit.Graph, res *Result) {
	flagged := make(map[string]bool)

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent {
			continue
		}
		ic := node.Component
		if !ic.IsIC() || ic.IsVirtual {
			continue
		}

		var pinVolts []float64
		seen := make(map[string]bool)
		for _, nb := range g.Neighbors(node.ID) {
			n := g.Node(nb).Net
			if !n.IsPowerRail || n.IsGround() || seen[n.Name] {
				continue
			}
			seen[n.Name] = true
			a, ok := res.Assignments[n.Name]
			if !ok {
				res.Findings = append(res.Findings, Finding{
					Kind:      FindingUnknownVoltage,
					Net:       n.Name,
					Component: ic.RefDes,
					Pin:       pinOn(n, ic.RefDes),
					Detail:    fmt.Sprintf("%s power pin on net %s has no voltage estimate", ic.RefDes, n.Name),
				})
				flagged[n.Name] = true
				continue
			}
			pinVolts = append(pinVolts, a.Volts)
		}

		if len(pinVolts) < 2 {
			continue
		}
		lo, hi := pinVolts[0], pinVolts[0]
		for _, v := range pinVolts[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi-lo > e.params.ConflictThreshold && lo > 0 {
			res.Findings = append(res.Findings, Finding{
				Kind:      FindingVoltageMismatch,
				Component: ic.RefDes,
				Detail:    fmt.Sprintf("%s has power pins at different voltages (%.1fV and %.1fV)", ic.RefDes, lo, hi),
				VoltsA:    lo,
				VoltsB:    hi,
			})
		}
	}

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindNet {
			continue
		}
		n := node.Net
		if !n.IsPowerRail || n.IsGround() || flagged[n.Name] {
			continue
		}
		if _, ok := res.Assignments[n.Name]; !ok {
			res.Findings = append(res.Findings, Finding{
				Kind:   FindingUnknownVoltage,
				Net:    n.Name,
				Detail: "power rail has no voltage estimate",
			})
		}
	}
}

// pinOn returns the pin number attaching refDes to the net, if recorded.
func pinOn(n *schema.Net, refDes string) string {
	for _, conn := range n.Connections {
		if conn.RefDes == refDes {
			return conn.Pin
		}
	}
	return ""
}
