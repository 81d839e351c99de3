// Package voltage estimates DC voltage levels for every net in a circuit.
// The engine runs in four phases: seed known sources, propagate through
// passive components with per-hop confidence decay, detect resistor
// dividers, and validate the resulting assignments. It never simulates;
// every number is a topology-derived estimate with an attached confidence.
package voltage

// Provenance records how a net's voltage estimate was obtained.
type Provenance string

const (
	// SourceAnnotation is an explicit voltage annotation on the net.
	SourceAnnotation Provenance = "annotation"
	// SourceRegulator is a recognised regulator output.
	SourceRegulator Provenance = "regulator"
	// SourceNameHeuristic is a voltage parsed from the net name.
	SourceNameHeuristic Provenance = "name_heuristic"
	// SourceGround marks ground nets pinned to 0 V.
	SourceGround Provenance = "ground"
	// SourcePropagated means the estimate crossed a passive component.
	SourcePropagated Provenance = "propagated"
	// SourceDivider is a computed resistor-divider midpoint.
	SourceDivider Provenance = "divider"
)

// Assignment is one net's voltage estimate.
type Assignment struct {
	Volts      float64    `json:"volts"`
	Confidence float64    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
	// SourceNet is the seed net the estimate descends from, for
	// propagated and divider assignments.
	SourceNet string `json:"source_net,omitempty"`
}

// FindingKind classifies a validation finding.
type FindingKind string

const (
	// FindingUnknownVoltage flags a power net with no estimate. When an
	// IC's power pin sits on the net, the finding carries the component
	// reference and pin number.
	FindingUnknownVoltage FindingKind = "unknown_voltage"
	// FindingVoltageMismatch flags an IC whose power pins resolve to
	// voltages further apart than the conflict threshold, suggesting
	// mixed supply domains.
	FindingVoltageMismatch FindingKind = "voltage_mismatch"
	// FindingConflictingVoltage flags a net reached by two estimates
	// more than the conflict threshold apart.
	FindingConflictingVoltage FindingKind = "conflicting_voltage"
	// FindingOvervoltage is reserved for component rating checks.
	// Nothing populates it yet; rating data is not in the snapshot.
	FindingOvervoltage FindingKind = "overvoltage"
)

// Finding is one validation observation. Findings are data, not errors:
// an analysis with findings still succeeds.
type Finding struct {
	Kind      FindingKind `json:"kind"`
	Net       string      `json:"net,omitempty"`
	Component string      `json:"component,omitempty"`
	Pin       string      `json:"pin,omitempty"`
	Detail    string      `json:"detail"`
	VoltsA    float64     `json:"volts_a,omitempty"`
	VoltsB    float64     `json:"volts_b,omitempty"`
}

// Result is the full outcome of a propagation run. Nets lists assigned
// net names in deterministic order; Assignments is keyed by net name.
type Result struct {
	Nets        []string              `json:"nets"`
	Assignments map[string]Assignment `json:"assignments"`
	Findings    []Finding             `json:"findings"`
}

// Assignment returns the estimate for a net, if any.
func (r *Result) Assignment(net string) (Assignment, bool) {
	a, ok := r.Assignments[net]
	return a, ok
}
