// Package circuit implements the bipartite component/net graph at the core
// of the analysis engine. Components and nets are both nodes; every edge is
// a pin connection between a component node and a net node. Nodes live in
// an arena indexed by stable integer handles, so traversal order is
// insertion order and results are reproducible across runs.
package circuit

import (
	"fmt"

	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

// NodeID is a stable handle into the graph's node arena.
type NodeID int

// NodeKind discriminates the two sides of the bipartite graph.
type NodeKind int

const (
	KindComponent NodeKind = iota
	KindNet
)

// Node is one arena entry. Exactly one of Component/Net is set, matching
// Kind.
type Node struct {
	ID        NodeID
	Kind      NodeKind
	Component *schema.Component
	Net       *schema.Net
}

// Edge is one pin connection between a component node and a net node.
type Edge struct {
	Comp    NodeID
	Net     NodeID
	Pin     string
	PinName string
}

// Graph is the bipartite circuit graph. All iteration-facing state is
// slice-backed; the maps exist only for O(1) lookup by name and are never
// ranged over.
type Graph struct {
	nodes []Node
	edges []Edge

	// adjacency: node -> indices into edges, in insertion order
	adj map[NodeID][]int

	compByRef map[string]NodeID
	netByName map[string]NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		adj:       make(map[NodeID][]int),
		compByRef: make(map[string]NodeID),
		netByName: make(map[string]NodeID),
	}
}

// AddComponent inserts a component node and returns its handle.
func (g *Graph) AddComponent(c *schema.Component) (NodeID, error) {
	if _, exists := g.compByRef[c.RefDes]; exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateComponent, c.RefDes)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Kind: KindComponent, Component: c})
	g.compByRef[c.RefDes] = id
	return id, nil
}

// AddNet inserts a net node and returns its handle.
func (g *Graph) AddNet(n *schema.Net) (NodeID, error) {
	if _, exists := g.netByName[n.Name]; exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateNet, n.Name)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Kind: KindNet, Net: n})
	g.netByName[n.Name] = id
	return id, nil
}

// Connect adds a pin edge between a component node and a net node.
func (g *Graph) Connect(comp, net NodeID, pin, pinName string) {
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{Comp: comp, Net: net, Pin: pin, PinName: pinName})
	g.adj[comp] = append(g.adj[comp], idx)
	g.adj[net] = append(g.adj[net], idx)
}

// FromSchematic builds a graph from a schematic snapshot. Components are
// inserted first, then nets, then one edge per net connection. A repeated
// net name merges its connections into the existing net node, so no
// attachment is lost; a repeated reference designator collapses onto the
// first occurrence. Connections naming unknown components are skipped
// rather than failing the build, matching how partially-annotated
// schematics are handled upstream.
func FromSchematic(s *schema.Schematic) *Graph {
	g := New()
	for _, c := range s.Components {
		g.AddComponent(c)
	}
	for _, n := range s.Nets {
		netID, err := g.AddNet(n)
		if err != nil {
			netID, _ = g.Net(n.Name)
		}
		for _, conn := range n.Connections {
			compID, ok := g.compByRef[conn.RefDes]
			if !ok {
				continue
			}
			pinName := ""
			if c := g.nodes[compID].Component; c != nil {
				if p := c.Pin(conn.Pin); p != nil {
					pinName = p.Name
				}
			}
			g.Connect(compID, netID, conn.Pin, pinName)
		}
	}
	return g
}

// ToSchematic reconstructs a schematic from the graph. Component and net
// order follow node insertion order; each net's connections follow edge
// insertion order, so a FromSchematic/ToSchematic round trip preserves the
// original ordering.
func (g *Graph) ToSchematic(name string) *schema.Schematic {
	out := schema.NewSchematic(name)
	for i := range g.nodes {
		node := &g.nodes[i]
		switch node.Kind {
		case KindComponent:
			out.AddComponent(node.Component)
		case KindNet:
			n := &schema.Net{
				Name:         node.Net.Name,
				VoltageLevel: node.Net.VoltageLevel,
				IsPowerRail:  node.Net.IsPowerRail,
				Signal:       node.Net.Signal,
			}
			for _, ei := range g.adj[node.ID] {
				e := g.edges[ei]
				comp := g.nodes[e.Comp].Component
				n.AddConnection(comp.RefDes, e.Pin)
			}
			out.AddNet(n)
		}
	}
	return out
}

// Component resolves a reference designator to its node handle.
func (g *Graph) Component(refDes string) (NodeID, bool) {
	id, ok := g.compByRef[refDes]
	return id, ok
}

// Net resolves a net name to its node handle.
func (g *Graph) Net(name string) (NodeID, bool) {
	id, ok := g.netByName[name]
	return id, ok
}

// Node returns the arena entry for a handle.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return &g.nodes[id]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Neighbors returns the nodes adjacent to id, in edge insertion order.
// For a component node these are nets; for a net node, components.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	var out []NodeID
	for _, ei := range g.adj[id] {
		e := g.edges[ei]
		if e.Comp == id {
			out = append(out, e.Net)
		} else {
			out = append(out, e.Comp)
		}
	}
	return out
}

// Stats summarises the graph.
type Stats struct {
	Components int `json:"components"`
	Nets       int `json:"nets"`
	Edges      int `json:"edges"`
	ICs        int `json:"ics"`
	PowerNets  int `json:"power_nets"`
}

// Stats counts components, nets, edges, ICs, and power-rail nets.
func (g *Graph) Stats() Stats {
	var s Stats
	for i := range g.nodes {
		switch g.nodes[i].Kind {
		case KindComponent:
			s.Components++
			if g.nodes[i].Component.IsIC() {
				s.ICs++
			}
		case KindNet:
			s.Nets++
			if g.nodes[i].Net.IsPowerRail {
				s.PowerNets++
			}
		}
	}
	s.Edges = len(g.edges)
	return s
}
