package drs

import (
	"math"

	"github.com/dd0wney/cluso-circuit/pkg/pcb"
)

// SegmentKind tags one hop of a copper path.
type SegmentKind string

const (
	SegmentTrace SegmentKind = "trace"
	SegmentVia   SegmentKind = "via"
	SegmentZone  SegmentKind = "zone"
	SegmentPad   SegmentKind = "pad"
)

// ViaHopMM is the length charged for passing through a via. The copper
// barrel itself is short; the constant keeps via hops visible in totals.
const ViaHopMM = 0.1

// viaSnapMM is the slack added to a via's radius when deciding whether a
// trace endpoint lands on it.
const viaSnapMM = 0.1

// PathSegment is one hop of a traced copper path. Pad segments bracket a
// path with its endpoints and carry the component reference and pad
// number instead of a copper UUID; they contribute no length.
type PathSegment struct {
	Kind      SegmentKind `json:"kind"`
	UUID      string      `json:"uuid,omitempty"`
	Ref       string      `json:"ref,omitempty"`
	PadNumber string      `json:"pad_number,omitempty"`
	Layer     string      `json:"layer,omitempty"`
	LengthMM  float64     `json:"length_mm"`
	WidthMM   float64     `json:"width_mm,omitempty"`
}

// PathAnalysis is the traced copper route between two points on a net.
type PathAnalysis struct {
	NetName       string        `json:"net_name"`
	Segments      []PathSegment `json:"segments"`
	TotalLengthMM float64       `json:"total_length_mm"`
	ViaCount      int           `json:"via_count"`
	PrimaryLayer  string        `json:"primary_layer"`
}

// copperNode is one vertex of a net's connectivity graph. A trace
// collapses to a single vertex covering both endpoints; vias and zones
// get one vertex each.
type copperNode struct {
	kind  SegmentKind
	uuid  string
	pos   pcb.Point
	end   pcb.Point // far endpoint for traces, same as pos otherwise
	layer string
	idx   int // index into the design's trace/via/zone slice
}

type netGraph struct {
	nodes []copperNode
	adj   [][]int
}

func (g *netGraph) add(n copperNode) int {
	g.nodes = append(g.nodes, n)
	g.adj = append(g.adj, nil)
	return len(g.nodes) - 1
}

func (g *netGraph) connect(a, b int) {
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// buildNetGraph assembles the connectivity graph for one net: traces
// first, then vias snapped to trace endpoints, then filled zones joined
// to trace endpoints falling inside them on the same layer.
func buildNetGraph(d *pcb.Design, netID uint32) *netGraph {
	g := &netGraph{}

	traceNodes := make(map[int]int) // design trace index -> node
	for i := range d.Traces {
		t := &d.Traces[i]
		if t.NetID != netID {
			continue
		}
		traceNodes[i] = g.add(copperNode{
			kind:  SegmentTrace,
			uuid:  t.UUID,
			pos:   t.Start,
			end:   t.End,
			layer: t.Layer,
			idx:   i,
		})
	}

	for i := range d.Vias {
		v := &d.Vias[i]
		if v.NetID != netID {
			continue
		}
		vn := g.add(copperNode{
			kind:  SegmentVia,
			uuid:  v.UUID,
			pos:   v.Position,
			end:   v.Position,
			layer: v.Layers[0] + "/" + v.Layers[1],
			idx:   i,
		})
		snap := v.SizeMM/2 + viaSnapMM
		for _, tn := range orderedKeys(traceNodes) {
			t := &d.Traces[g.nodes[tn].idx]
			if v.Position.DistanceTo(t.Start) <= snap || v.Position.DistanceTo(t.End) <= snap {
				g.connect(vn, tn)
			}
		}
	}

	for i := range d.Zones {
		z := &d.Zones[i]
		if z.NetID != netID || !z.Filled {
			continue
		}
		anchor := zoneAnchor(z)
		zn := g.add(copperNode{
			kind:  SegmentZone,
			uuid:  z.UUID,
			pos:   anchor,
			end:   anchor,
			layer: z.Layer,
			idx:   i,
		})
		for _, tn := range orderedKeys(traceNodes) {
			t := &d.Traces[g.nodes[tn].idx]
			if t.Layer != z.Layer {
				continue
			}
			if z.Contains(t.Start) || z.Contains(t.End) {
				g.connect(zn, tn)
			}
		}
	}

	return g
}

// orderedKeys returns trace node IDs in design order so edge lists, and
// therefore BFS tie-breaks, are deterministic.
func orderedKeys(m map[int]int) []int {
	out := make([]int, 0, len(m))
	max := -1
	for k := range m {
		if k > max {
			max = k
		}
	}
	for k := 0; k <= max; k++ {
		if n, ok := m[k]; ok {
			out = append(out, n)
		}
	}
	return out
}

func zoneAnchor(z *pcb.Zone) pcb.Point {
	if len(z.Outline) > 0 {
		return z.Outline[0]
	}
	return pcb.Point{}
}

// nearest returns the graph node closest to p. Traces measure to their
// closest endpoint; the first node wins ties.
func (g *netGraph) nearest(p pcb.Point) int {
	best, bestDist := -1, math.Inf(1)
	for i, n := range g.nodes {
		dist := n.pos.DistanceTo(p)
		if far := n.end.DistanceTo(p); far < dist {
			dist = far
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// bfs finds the hop-minimal route between two nodes. Returns nil when
// disconnected.
func (g *netGraph) bfs(start, goal int) []int {
	if start == goal {
		return []int{start}
	}
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}
	visited := make([]bool, len(g.nodes))
	visited[start] = true
	queue := []int{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == goal {
				return rebuild(parent, start, goal)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func rebuild(parent []int, start, goal int) []int {
	var rev []int
	for at := goal; at != -1; at = parent[at] {
		rev = append(rev, at)
		if at == start {
			break
		}
	}
	out := make([]int, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

// TracePath traces the copper route between two points on the named net.
// Returns ErrNetNotFound for unknown nets and ErrNoPath when the copper
// does not connect the points. A net with no routed copper but a filled
// zone covering both points resolves to a single zone hop.
func TracePath(d *pcb.Design, netName string, from, to pcb.Point) (*PathAnalysis, error) {
	netID, ok := d.NetID(netName)
	if !ok {
		return nil, ErrNetNotFound
	}

	g := buildNetGraph(d, netID)
	if len(g.nodes) == 0 {
		return nil, ErrNoPath
	}

	start := g.nearest(from)
	goal := g.nearest(to)
	route := g.bfs(start, goal)
	if route == nil {
		return nil, ErrNoPath
	}

	return buildAnalysis(d, g, route, netName, from, to), nil
}

// buildAnalysis converts a node route into segments. Traces contribute
// their full segment length, vias a fixed hop, zones the straight-line
// distance between the neighbouring hops.
func buildAnalysis(d *pcb.Design, g *netGraph, route []int, netName string, from, to pcb.Point) *PathAnalysis {
	pa := &PathAnalysis{NetName: netName}
	layerCounts := make(map[string]int)
	var layerOrder []string

	posAt := func(i int) pcb.Point {
		if i < 0 {
			return from
		}
		if i >= len(route) {
			return to
		}
		return g.nodes[route[i]].pos
	}

	for i, ni := range route {
		n := g.nodes[ni]
		seg := PathSegment{Kind: n.kind, UUID: n.uuid, Layer: n.layer}

		switch n.kind {
		case SegmentTrace:
			t := &d.Traces[n.idx]
			seg.LengthMM = t.LengthMM()
			seg.WidthMM = t.WidthMM
			if layerCounts[n.layer] == 0 {
				layerOrder = append(layerOrder, n.layer)
			}
			layerCounts[n.layer]++
		case SegmentVia:
			seg.LengthMM = ViaHopMM
			pa.ViaCount++
		case SegmentZone:
			seg.LengthMM = posAt(i - 1).DistanceTo(posAt(i + 1))
		}

		pa.Segments = append(pa.Segments, seg)
		pa.TotalLengthMM += seg.LengthMM
	}

	best := 0
	for _, layer := range layerOrder {
		if layerCounts[layer] > best {
			best = layerCounts[layer]
			pa.PrimaryLayer = layer
		}
	}
	if pa.PrimaryLayer == "" && len(pa.Segments) > 0 {
		pa.PrimaryLayer = pa.Segments[0].Layer
	}
	return pa
}
