package analysis

import "github.com/dd0wney/cluso-circuit/pkg/circuit"

// Connectivity is the structural health check of a circuit graph.
type Connectivity struct {
	// FloatingComponents are non-virtual ICs missing a power or ground
	// connection.
	FloatingComponents []string `json:"floating_components"`

	// SingleConnectionNets are non-rail nets with exactly one attachment.
	SingleConnectionNets []string `json:"single_connection_nets"`

	// PowerConnections maps each power net to its attached components.
	PowerConnections map[string][]string `json:"power_connections"`

	// GroundConnections maps each ground net to its attached components.
	GroundConnections map[string][]string `json:"ground_connections"`
}

// AnalyzeConnectivity walks every net once, collecting rail attachment
// maps, then flags ICs that miss either rail. Output slices follow graph
// insertion order.
func AnalyzeConnectivity(g *circuit.Graph) *Connectivity {
	result := &Connectivity{
		PowerConnections:  make(map[string][]string),
		GroundConnections: make(map[string][]string),
	}

	powerConnected := make(map[string]bool)
	groundConnected := make(map[string]bool)

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindNet {
			continue
		}
		net := node.Net

		comps, err := g.ComponentsOnNet(net.Name)
		if err != nil {
			continue
		}
		refs := make([]string, 0, len(comps))
		for _, c := range comps {
			refs = append(refs, c.RefDes)
		}

		if len(refs) == 1 && !net.IsPowerRail {
			result.SingleConnectionNets = append(result.SingleConnectionNets, net.Name)
		}

		switch {
		case net.IsGround():
			result.GroundConnections[net.Name] = refs
			for _, r := range refs {
				groundConnected[r] = true
			}
		case net.IsPowerRail:
			result.PowerConnections[net.Name] = refs
			for _, r := range refs {
				powerConnected[r] = true
			}
		}
	}

	for _, node := range g.Nodes() {
		if node.Kind != circuit.KindComponent {
			continue
		}
		ic := node.Component
		if !ic.IsIC() || ic.IsVirtual {
			continue
		}
		if !powerConnected[ic.RefDes] || !groundConnected[ic.RefDes] {
			result.FloatingComponents = append(result.FloatingComponents, ic.RefDes)
		}
	}

	return result
}
