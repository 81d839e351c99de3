// Package decoupling groups capacitors by the IC power/ground net pair
// they serve and checks that each group carries both a high-frequency
// bypass and a bulk capacitor. Grouping is by connectivity plus physical
// proximity: a capacitor on the right nets but across the board does not
// decouple anything.
package decoupling

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-circuit/pkg/capclass"
	"github.com/dd0wney/cluso-circuit/pkg/circuit"
	"github.com/dd0wney/cluso-circuit/pkg/logging"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
	"github.com/dd0wney/cluso-circuit/pkg/units"
)

// MaxDistanceMM is the proximity cutoff for a capacitor to count toward
// an IC's decoupling group.
const MaxDistanceMM = 20.0

// CapacitorAnalysis is one capacitor's role within a group.
type CapacitorAnalysis struct {
	Ref            string            `json:"ref"`
	Value          string            `json:"value"`
	Function       capclass.Function `json:"function"`
	DistanceToICMM float64           `json:"distance_to_ic_mm"`
	IsHFBypass     bool              `json:"is_hf_bypass"`
	IsBulk         bool              `json:"is_bulk"`
}

// Group is the decoupling picture for one IC power/ground net pair.
type Group struct {
	ICRef              string               `json:"ic_ref"`
	ICValue            string               `json:"ic_value"`
	PowerNet           string               `json:"power_net"`
	GroundNet          string               `json:"ground_net"`
	Capacitors         []CapacitorAnalysis  `json:"capacitors"`
	HasHFBypass        bool                 `json:"has_hf_bypass"`
	HasBulk            bool                 `json:"has_bulk"`
	HFBypassDistanceMM *float64             `json:"hf_bypass_distance_mm,omitempty"`
}

// HasBoth reports whether the group carries both a bypass and a bulk cap.
func (g *Group) HasBoth() bool {
	return g.HasHFBypass && g.HasBulk
}

// Analyzer builds decoupling groups.
type Analyzer struct {
	log           logging.Logger
	maxDistanceMM float64
}

// NewAnalyzer creates an analyzer. A nil logger disables logging.
func NewAnalyzer(log logging.Logger) *Analyzer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Analyzer{log: log, maxDistanceMM: MaxDistanceMM}
}

// WithMaxDistance overrides the proximity cutoff. Non-positive values
// are ignored.
func (a *Analyzer) WithMaxDistance(mm float64) *Analyzer {
	if mm > 0 {
		a.maxDistanceMM = mm
	}
	return a
}

// GroupsFromGraph builds groups from the circuit graph, the preferred
// path. ICs are taken in graph order; for each power/ground net pair on
// the IC, every capacitor within MaxDistanceMM connected to both nets
// joins the group. Groups with no capacitors are omitted.
func (a *Analyzer) GroupsFromGraph(g *circuit.Graph, classifications []capclass.Classification) []Group {
	funcByRef := functionIndex(classifications)
	var groups []Group

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent {
			continue
		}
		ic := node.Component
		if !ic.IsIC() || ic.IsVirtual {
			continue
		}

		nets, err := g.NetsForComponent(ic.RefDes)
		if err != nil {
			continue
		}
		powerNets, gndNets := splitRails(nets)

		for _, power := range powerNets {
			for _, gnd := range gndNets {
				caps := a.capsForPairGraph(g, ic, power, gnd, funcByRef)
				if len(caps) == 0 {
					continue
				}
				groups = append(groups, buildGroup(ic, power, gnd, caps))
			}
		}
	}

	a.log.Debug("decoupling groups built", logging.Count(len(groups)))
	return groups
}

// GroupsFromSchematic builds groups straight from the schematic, used
// when no graph has been constructed. Produces the same groups as
// GroupsFromGraph on the same snapshot.
func (a *Analyzer) GroupsFromSchematic(s *schema.Schematic, classifications []capclass.Classification) []Group {
	funcByRef := functionIndex(classifications)
	var groups []Group

	for _, ic := range s.Components {
		if !ic.IsIC() || ic.IsVirtual {
			continue
		}
		powerNets, gndNets := splitRails(s.NetsForComponent(ic.RefDes))

		for _, power := range powerNets {
			for _, gnd := range gndNets {
				var caps []CapacitorAnalysis
				for _, c := range s.Components {
					if !c.IsCapacitor() {
						continue
					}
					if !connectedToBoth(s, c.RefDes, power.Name, gnd.Name) {
						continue
					}
					dist, ok := distanceBetween(ic, c)
					if !ok || dist > a.maxDistanceMM {
						continue
					}
					caps = append(caps, a.analyzeCap(c, dist, funcByRef))
				}
				if len(caps) == 0 {
					continue
				}
				groups = append(groups, buildGroup(ic, power, gnd, caps))
			}
		}
	}

	return groups
}

// capsForPairGraph collects capacitors near the IC connected to both nets.
func (a *Analyzer) capsForPairGraph(g *circuit.Graph, ic *schema.Component, power, gnd *schema.Net, funcByRef map[string]capclass.Function) []CapacitorAnalysis {
	nearby, err := g.CapacitorsNear(ic.RefDes, a.maxDistanceMM)
	if err != nil {
		return nil
	}

	var out []CapacitorAnalysis
	for _, c := range nearby {
		capNets, err := g.NetsForComponent(c.RefDes)
		if err != nil {
			continue
		}
		hasPower, hasGnd := false, false
		for _, n := range capNets {
			if n.Name == power.Name {
				hasPower = true
			}
			if n.Name == gnd.Name {
				hasGnd = true
			}
		}
		if !hasPower || !hasGnd {
			continue
		}
		dist, ok := distanceBetween(ic, c)
		if !ok {
			continue
		}
		out = append(out, a.analyzeCap(c, dist, funcByRef))
	}
	return out
}

func (a *Analyzer) analyzeCap(c *schema.Component, dist float64, funcByRef map[string]capclass.Function) CapacitorAnalysis {
	fn, ok := funcByRef[c.RefDes]
	if !ok {
		fn = capclass.FunctionUnknown
	}
	hf, bulk := classifyCapType(c.Value, fn)
	return CapacitorAnalysis{
		Ref:            c.RefDes,
		Value:          c.Value,
		Function:       fn,
		DistanceToICMM: dist,
		IsHFBypass:     hf,
		IsBulk:         bulk,
	}
}

func buildGroup(ic *schema.Component, power, gnd *schema.Net, caps []CapacitorAnalysis) Group {
	// order by distance, then reference, so the graph and schematic
	// paths emit identical groups
	sort.SliceStable(caps, func(i, j int) bool {
		if caps[i].DistanceToICMM != caps[j].DistanceToICMM {
			return caps[i].DistanceToICMM < caps[j].DistanceToICMM
		}
		return caps[i].Ref < caps[j].Ref
	})

	grp := Group{
		ICRef:      ic.RefDes,
		ICValue:    ic.Value,
		PowerNet:   power.Name,
		GroundNet:  gnd.Name,
		Capacitors: caps,
	}
	closest := math.MaxFloat64
	for _, c := range caps {
		if c.IsHFBypass {
			grp.HasHFBypass = true
			if c.DistanceToICMM < closest {
				closest = c.DistanceToICMM
			}
		}
		if c.IsBulk {
			grp.HasBulk = true
		}
	}
	if grp.HasHFBypass {
		d := closest
		grp.HFBypassDistanceMM = &d
	}
	return grp
}

// classifyCapType marks a capacitor as HF bypass, bulk, or neither. Both
// the value range and the classifier's verdict must agree: a 100 nF cap
// classified as a low-pass filter is not a bypass cap.
func classifyCapType(value string, fn capclass.Function) (isHFBypass, isBulk bool) {
	pf, ok := units.ParseCapacitance(value)
	if !ok {
		return false, false
	}
	nf := pf / 1e3
	uf := pf / 1e6

	isHFBypass = nf >= 10.0 && uf <= 2.2 && fn == capclass.FunctionDecoupling
	isBulk = uf > 4.7 && fn == capclass.FunctionBulk
	return isHFBypass, isBulk
}

// splitRails separates an IC's nets into power rails and grounds.
func splitRails(nets []*schema.Net) (power, gnd []*schema.Net) {
	for _, n := range nets {
		switch {
		case n.IsGround():
			gnd = append(gnd, n)
		case n.IsPowerRail:
			power = append(power, n)
		}
	}
	return power, gnd
}

// functionIndex indexes classifications by reference designator.
func functionIndex(classifications []capclass.Classification) map[string]capclass.Function {
	idx := make(map[string]capclass.Function, len(classifications))
	for _, cls := range classifications {
		idx[cls.Ref] = cls.Function
	}
	return idx
}

func connectedToBoth(s *schema.Schematic, ref, powerNet, gndNet string) bool {
	hasPower, hasGnd := false, false
	for _, n := range s.NetsForComponent(ref) {
		if n.Name == powerNet {
			hasPower = true
		}
		if n.Name == gndNet {
			hasGnd = true
		}
	}
	return hasPower && hasGnd
}

func distanceBetween(a, b *schema.Component) (float64, bool) {
	if a.Position == nil || b.Position == nil {
		return 0, false
	}
	return a.Position.DistanceTo(*b.Position), true
}
