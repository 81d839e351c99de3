package circuit

import (
	"fmt"

	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

// ComponentsOnNet returns every component attached to the named net, in
// edge insertion order.
func (g *Graph) ComponentsOnNet(netName string) ([]*schema.Component, error) {
	netID, ok := g.netByName[netName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetNotFound, netName)
	}
	var out []*schema.Component
	seen := make(map[NodeID]bool)
	for _, nb := range g.Neighbors(netID) {
		if seen[nb] {
			continue
		}
		seen[nb] = true
		out = append(out, g.nodes[nb].Component)
	}
	return out, nil
}

// NetsForComponent returns every net the named component attaches to, in
// edge insertion order.
func (g *Graph) NetsForComponent(refDes string) ([]*schema.Net, error) {
	compID, ok := g.compByRef[refDes]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, refDes)
	}
	var out []*schema.Net
	seen := make(map[NodeID]bool)
	for _, nb := range g.Neighbors(compID) {
		if seen[nb] {
			continue
		}
		seen[nb] = true
		out = append(out, g.nodes[nb].Net)
	}
	return out, nil
}

// ConnectionPin returns the pin number the component uses on the given
// net, or "" when they are not connected.
func (g *Graph) ConnectionPin(refDes, netName string) string {
	compID, ok1 := g.compByRef[refDes]
	netID, ok2 := g.netByName[netName]
	if !ok1 || !ok2 {
		return ""
	}
	for _, ei := range g.adj[compID] {
		e := g.edges[ei]
		if e.Net == netID {
			return e.Pin
		}
	}
	return ""
}

// ComponentsNear returns components within radius millimetres of the named
// component, sorted nearest first. Components without a position are
// skipped. The anchor itself is excluded.
func (g *Graph) ComponentsNear(refDes string, radiusMM float64) ([]*schema.Component, error) {
	compID, ok := g.compByRef[refDes]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, refDes)
	}
	anchor := g.nodes[compID].Component
	if anchor.Position == nil {
		return nil, nil
	}

	type candidate struct {
		comp *schema.Component
		dist float64
	}
	var near []candidate
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.Kind != KindComponent || n.ID == compID {
			continue
		}
		c := n.Component
		if c.Position == nil {
			continue
		}
		d := anchor.Position.DistanceTo(*c.Position)
		if d <= radiusMM {
			near = append(near, candidate{comp: c, dist: d})
		}
	}

	// stable insertion sort: ties keep arena order
	for i := 1; i < len(near); i++ {
		for j := i; j > 0 && near[j].dist < near[j-1].dist; j-- {
			near[j], near[j-1] = near[j-1], near[j]
		}
	}

	out := make([]*schema.Component, len(near))
	for i, c := range near {
		out[i] = c.comp
	}
	return out, nil
}

// CapacitorsNear returns nearby capacitors within radius millimetres,
// nearest first.
func (g *Graph) CapacitorsNear(refDes string, radiusMM float64) ([]*schema.Component, error) {
	all, err := g.ComponentsNear(refDes, radiusMM)
	if err != nil {
		return nil, err
	}
	var caps []*schema.Component
	for _, c := range all {
		if c.IsCapacitor() {
			caps = append(caps, c)
		}
	}
	return caps, nil
}

// Slice exports a bounded sub-schematic around the selected components:
// the components themselves, every net touching them, and every other
// component on those nets. Used to hand a focused circuit neighborhood to
// downstream consumers without the full design.
func (g *Graph) Slice(name string, refs ...string) (*schema.Schematic, error) {
	wantComp := make(map[NodeID]bool)
	wantNet := make(map[NodeID]bool)

	for _, ref := range refs {
		compID, ok := g.compByRef[ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, ref)
		}
		wantComp[compID] = true
		for _, nb := range g.Neighbors(compID) {
			wantNet[nb] = true
		}
	}
	for i := range g.nodes {
		if g.nodes[i].Kind != KindNet || !wantNet[g.nodes[i].ID] {
			continue
		}
		for _, nb := range g.Neighbors(g.nodes[i].ID) {
			wantComp[nb] = true
		}
	}

	out := schema.NewSchematic(name)
	for i := range g.nodes {
		node := &g.nodes[i]
		switch {
		case node.Kind == KindComponent && wantComp[node.ID]:
			out.AddComponent(node.Component)
		case node.Kind == KindNet && wantNet[node.ID]:
			n := &schema.Net{
				Name:         node.Net.Name,
				VoltageLevel: node.Net.VoltageLevel,
				IsPowerRail:  node.Net.IsPowerRail,
				Signal:       node.Net.Signal,
			}
			for _, ei := range g.adj[node.ID] {
				e := g.edges[ei]
				n.AddConnection(g.nodes[e.Comp].Component.RefDes, e.Pin)
			}
			out.AddNet(n)
		}
	}
	return out, nil
}
