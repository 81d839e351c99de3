package drs

import "math"

// Partial self-inductance models for decoupling loop estimation. Both
// formulas are the standard microstrip approximations; inputs and
// results stay in millimetres and nanohenries.

// DefaultTraceWidthMM is assumed when a path carries no routed trace to
// read a width from.
const DefaultTraceWidthMM = 0.25

// DefaultViaDrillMM is assumed for vias without drill data.
const DefaultViaDrillMM = 0.3

// TraceInductanceNH estimates the partial self-inductance of a flat
// trace: L = (mu0/2pi) * l * ln(2l/w), with mu0/2pi = 0.2 nH/mm.
func TraceInductanceNH(lengthMM, widthMM float64) float64 {
	if lengthMM <= 0 {
		return 0
	}
	if widthMM <= 0 {
		widthMM = DefaultTraceWidthMM
	}
	ratio := 2 * lengthMM / widthMM
	if ratio <= 1 {
		return 0
	}
	return 0.2 * lengthMM * math.Log(ratio)
}

// ViaInductanceNH estimates a via's inductance from barrel height and
// drill diameter: L = 5.08 * h * (ln(4h/d) + 1) nH, h and d in inches.
func ViaInductanceNH(heightMM, drillMM float64) float64 {
	if heightMM <= 0 {
		return 0
	}
	if drillMM <= 0 {
		drillMM = DefaultViaDrillMM
	}
	const mmPerInch = 25.4
	h := heightMM / mmPerInch
	d := drillMM / mmPerInch
	return 5.08 * h * (math.Log(4*h/d) + 1)
}

// PathInductanceNH sums the inductance of a traced copper path. Trace
// segments use their routed width; vias use the board thickness as
// barrel height. Zone hops are treated as negligible: plane spreading
// inductance is well under a trace of the same span.
func PathInductanceNH(pa *PathAnalysis, boardThicknessMM float64) float64 {
	if pa == nil {
		return 0
	}
	total := 0.0
	for _, seg := range pa.Segments {
		switch seg.Kind {
		case SegmentTrace:
			total += TraceInductanceNH(seg.LengthMM, seg.WidthMM)
		case SegmentVia:
			total += ViaInductanceNH(boardThicknessMM, DefaultViaDrillMM)
		}
	}
	return total
}
