// Package drs scores decoupling network risk per IC. For every placed IC
// it measures its bypass capacitors against the board: proximity to the
// power pins, loop inductance through vias and dog-bone traces, and how
// far each capacitor's self-resonant frequency sits from the IC's
// switching frequency. Penalties are weighted by rail criticality and
// folded into a 0-100 risk score.
package drs

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-circuit/pkg/decoupling"
	"github.com/dd0wney/cluso-circuit/pkg/logging"
	"github.com/dd0wney/cluso-circuit/pkg/pcb"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

// Penalty weights. Distance and inductance dominate because they set the
// loop impedance; value mismatch refines within that.
const (
	weightDistance   = 0.4
	weightInductance = 0.4
	weightMismatch   = 0.2
)

// Geometry thresholds in millimetres.
const (
	closeProximityMM  = 2.0 // beyond this, distance penalty grows quadratically
	viaSearchRadiusMM = 5.0 // vias within this of a pad count as connecting
	sharedViaRadiusMM = 2.0 // another cap's pad within this of a via shares it
)

// MaxRisk is the score ceiling and the score for an IC with no
// decoupling capacitors at all.
const MaxRisk = 100.0

// Criticality ranks how sensitive an IC's supply rail is.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityHigh     Criticality = "high"
	CriticalityMedium   Criticality = "medium"
	CriticalityLow      Criticality = "low"
)

// Weight returns the multiplier applied to the IC's penalties.
func (c Criticality) Weight() float64 {
	switch c {
	case CriticalityCritical:
		return 1.0
	case CriticalityHigh:
		return 0.7
	case CriticalityLow:
		return 0.2
	default:
		return 0.5
	}
}

// FlagKind labels a layout hazard attached to a score.
type FlagKind string

const (
	FlagSharedVia      FlagKind = "shared_via"
	FlagBacksideOffset FlagKind = "backside_offset"
	FlagNeckDown       FlagKind = "neck_down"
)

// Flag is a specific layout hazard found while scoring.
type Flag struct {
	Kind            FlagKind `json:"kind"`
	Capacitor       string   `json:"capacitor"`
	OtherCapacitor  string   `json:"other_capacitor,omitempty"`
	ViaUUID         string   `json:"via_uuid,omitempty"`
	ViaCount        int      `json:"via_count,omitempty"`
	TraceWidthMM    float64  `json:"trace_width_mm,omitempty"`
	PlaneConnection bool     `json:"plane_connection,omitempty"`
	Detail          string   `json:"detail"`
}

// CapacitorRisk is the per-capacitor breakdown behind an IC's score.
type CapacitorRisk struct {
	Ref               string        `json:"ref"`
	Value             string        `json:"value"`
	DistanceMM        float64       `json:"distance_mm"`
	ProximityPenalty  float64       `json:"proximity_penalty"`
	ViaCount          int           `json:"via_count"`
	DogBoneLengthMM   float64       `json:"dog_bone_length_mm"`
	SharedVia         bool          `json:"shared_via"`
	InductancePenalty float64       `json:"inductance_penalty"`
	InductanceNH      float64       `json:"inductance_nh"`
	SRFMHz            float64       `json:"srf_mhz"`
	MismatchPenalty   float64       `json:"mismatch_penalty"`
	Path              *PathAnalysis `json:"path,omitempty"`
}

// ICRiskScore is the decoupling risk verdict for one IC.
type ICRiskScore struct {
	ICRef             string          `json:"ic_ref"`
	ICValue           string          `json:"ic_value"`
	SwitchingFreqMHz  float64         `json:"switching_freq_mhz"`
	Criticality       Criticality     `json:"criticality"`
	Capacitors        []CapacitorRisk `json:"capacitors"`
	ProximityPenalty  float64         `json:"proximity_penalty"`
	InductancePenalty float64         `json:"inductance_penalty"`
	MismatchPenalty   float64         `json:"mismatch_penalty"`
	Risk              float64         `json:"risk"`
	Flags             []Flag          `json:"flags,omitempty"`
	MaxInductanceNH   *float64        `json:"max_inductance_nh,omitempty"`
}

// Engine scores ICs against a board snapshot.
type Engine struct {
	tables *Tables
	log    logging.Logger
}

// NewEngine creates a risk engine. Nil tables use the built-in
// calibration libraries; a nil logger disables logging.
func NewEngine(tables *Tables, log logging.Logger) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Engine{tables: tables, log: log}
}

// Analyze scores every placed, non-virtual IC. Candidate capacitors come
// from the decoupling groups; an IC whose groups hold no capacitors gets
// the maximum risk score with an empty capacitor list. ICs without a
// footprint or without identifiable power pins are skipped.
func (e *Engine) Analyze(s *schema.Schematic, board *pcb.Design, groups []decoupling.Group) []ICRiskScore {
	var scores []ICRiskScore
	skippedFootprint, skippedPower := 0, 0

	for _, ic := range s.ICs() {
		if ic.IsVirtual {
			continue
		}
		fp := board.Footprint(ic.RefDes)
		if fp == nil {
			skippedFootprint++
			continue
		}
		powerPads := powerPins(fp)
		if len(powerPads) == 0 {
			skippedPower++
			e.log.Warn("IC has no identifiable power pins",
				logging.RefDes(ic.RefDes))
			continue
		}

		scores = append(scores, e.scoreIC(s, board, ic, fp, powerPads, capRefsFor(ic.RefDes, groups)))
	}

	e.log.Info("risk analysis complete",
		logging.Count(len(scores)),
		logging.Int("skipped_no_footprint", skippedFootprint),
		logging.Int("skipped_no_power_pins", skippedPower))
	return scores
}

// capRefsFor collects the capacitor references serving an IC across all
// of its decoupling groups, in group order, deduplicated.
func capRefsFor(icRef string, groups []decoupling.Group) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, g := range groups {
		if g.ICRef != icRef {
			continue
		}
		for _, c := range g.Capacitors {
			if !seen[c.Ref] {
				seen[c.Ref] = true
				refs = append(refs, c.Ref)
			}
		}
	}
	return refs
}

func (e *Engine) scoreIC(s *schema.Schematic, board *pcb.Design, ic *schema.Component, fp *pcb.Footprint, powerPads []*pcb.Pad, capRefs []string) ICRiskScore {
	score := ICRiskScore{
		ICRef:            ic.RefDes,
		ICValue:          ic.Value,
		SwitchingFreqMHz: e.tables.ICSwitchingFreqMHz(ic.Value),
		Criticality:      classifyCriticality(ic.Value, s.NetsForComponent(ic.RefDes)),
	}
	if limit, ok := e.tables.MaxInductanceNH(ic.Value); ok {
		score.MaxInductanceNH = &limit
	}

	if len(capRefs) == 0 {
		// an IC with no decoupling at all is the worst possible layout
		score.Risk = MaxRisk
		e.log.Warn("IC has no decoupling capacitors",
			logging.RefDes(ic.RefDes))
		return score
	}

	for _, capRef := range capRefs {
		capFp := board.Footprint(capRef)
		if capFp == nil || len(capFp.Pads) == 0 {
			continue
		}
		cr, flags := e.analyzeCapacitor(board, capRef, capFp, fp, powerPads, score.SwitchingFreqMHz)
		score.Capacitors = append(score.Capacitors, cr)
		score.Flags = append(score.Flags, flags...)
	}

	if len(score.Capacitors) == 0 {
		score.Risk = MaxRisk
		return score
	}

	n := float64(len(score.Capacitors))
	var proximity, inductance, mismatch float64
	for _, c := range score.Capacitors {
		proximity += c.ProximityPenalty
		inductance += c.InductancePenalty
		mismatch += c.MismatchPenalty
	}
	w := score.Criticality.Weight()
	score.ProximityPenalty = proximity / n * weightDistance * w
	score.InductancePenalty = inductance / n * weightInductance * w
	score.MismatchPenalty = mismatch / n * weightMismatch * w

	risk := score.ProximityPenalty + score.InductancePenalty + score.MismatchPenalty
	if risk > MaxRisk {
		risk = MaxRisk
	}
	if risk < 0 {
		risk = 0
	}
	score.Risk = risk
	return score
}

// analyzeCapacitor measures one capacitor's placement against the IC.
func (e *Engine) analyzeCapacitor(board *pcb.Design, capRef string, capFp, icFp *pcb.Footprint, powerPads []*pcb.Pad, icFreqMHz float64) (CapacitorRisk, []Flag) {
	capPad, powerPad := alignPads(capFp, powerPads)
	dist := capPad.Position.DistanceTo(powerPad.Position)
	var flags []Flag

	cr := CapacitorRisk{
		Ref:        capRef,
		Value:      capFp.Value,
		DistanceMM: dist,
		SRFMHz:     e.tables.CapacitorSRFMHz(capFp.Value),
	}
	cr.ProximityPenalty = proximityPenalty(dist)

	vias := connectingVias(board, capFp)
	cr.ViaCount = len(vias)
	if len(vias) > 0 {
		cr.DogBoneLengthMM = capPad.Position.DistanceTo(vias[0].Position)
	}

	if other, via := sharedViaWith(board, capFp, vias); other != "" {
		cr.SharedVia = true
		flags = append(flags, Flag{
			Kind:           FlagSharedVia,
			Capacitor:      capRef,
			OtherCapacitor: other,
			ViaUUID:        via,
			Detail:         fmt.Sprintf("%s shares a ground via with %s", capRef, other),
		})
	}

	if cr.SharedVia {
		cr.InductancePenalty = (float64(cr.ViaCount) + cr.DogBoneLengthMM) * 10
	} else {
		cr.InductancePenalty = float64(cr.ViaCount)*2 + cr.DogBoneLengthMM*1.5
	}

	cr.InductanceNH = e.loopInductance(board, capRef, icFp.Reference, capPad, powerPad, cr.ViaCount, cr.DogBoneLengthMM, &cr)

	cr.MismatchPenalty = mismatchPenalty(icFreqMHz, cr.SRFMHz)

	if capFp.Layer != icFp.Layer {
		flags = append(flags, Flag{
			Kind:      FlagBacksideOffset,
			Capacitor: capRef,
			ViaCount:  cr.ViaCount,
			Detail:    fmt.Sprintf("%s is placed on %s, IC on %s", capRef, capFp.Layer, icFp.Layer),
		})
	}

	if f, ok := neckDown(board, capPad, capRef); ok {
		flags = append(flags, f)
	}

	return cr, flags
}

// loopInductance estimates the physical loop inductance in nanohenries.
// When the copper path can be traced the routed geometry is used, and the
// recorded path is bracketed with its pad endpoints; otherwise the
// dog-bone length and via count stand in.
func (e *Engine) loopInductance(board *pcb.Design, capRef, icRef string, capPad, powerPad *pcb.Pad, viaCount int, dogBoneMM float64, cr *CapacitorRisk) float64 {
	if capPad.NetName != "" {
		if pa, err := TracePath(board, capPad.NetName, capPad.Position, powerPad.Position); err == nil {
			pa.Segments = append([]PathSegment{
				{Kind: SegmentPad, Ref: capRef, PadNumber: capPad.Number},
			}, pa.Segments...)
			pa.Segments = append(pa.Segments, PathSegment{
				Kind: SegmentPad, Ref: icRef, PadNumber: powerPad.Number,
			})
			cr.Path = pa
			return PathInductanceNH(pa, board.Thickness())
		}
	}
	l := TraceInductanceNH(dogBoneMM, DefaultTraceWidthMM)
	l += float64(viaCount) * ViaInductanceNH(board.Thickness(), DefaultViaDrillMM)
	return l
}

// alignPads picks the capacitor pad and IC power pad sharing a supply
// net, so path tracing starts on the capacitor's power-side pad rather
// than whichever pad happens to be listed first. When no net is shared
// the first capacitor pad and the nearest power pad stand in.
func alignPads(capFp *pcb.Footprint, powerPads []*pcb.Pad) (*pcb.Pad, *pcb.Pad) {
	for pi := range capFp.Pads {
		cp := &capFp.Pads[pi]
		if cp.NetID == 0 {
			continue
		}
		var best *pcb.Pad
		bestDist := 0.0
		for _, pp := range powerPads {
			if pp.NetID != cp.NetID {
				continue
			}
			if d := cp.Position.DistanceTo(pp.Position); best == nil || d < bestDist {
				best, bestDist = pp, d
			}
		}
		if best != nil {
			return cp, best
		}
	}

	capPad := &capFp.Pads[0]
	best := powerPads[0]
	bestDist := capPad.Position.DistanceTo(best.Position)
	for _, pp := range powerPads[1:] {
		if d := capPad.Position.DistanceTo(pp.Position); d < bestDist {
			best, bestDist = pp, d
		}
	}
	return capPad, best
}

// proximityPenalty grows linearly up to 2 mm and quadratically beyond.
func proximityPenalty(distMM float64) float64 {
	if distMM <= closeProximityMM {
		return distMM * 2
	}
	over := distMM - closeProximityMM
	return 4 + over*over*5
}

// mismatchPenalty compares the IC switching frequency to the capacitor's
// self-resonant frequency. Within half to double is free; running slow
// costs more than running fast because the capacitor stops looking
// capacitive above resonance.
func mismatchPenalty(icFreqMHz, srfMHz float64) float64 {
	if icFreqMHz <= 0 || srfMHz <= 0 {
		return 5.0
	}
	ratio := icFreqMHz / srfMHz
	switch {
	case ratio > 0.5 && ratio < 2.0:
		return 0
	case ratio <= 0.5:
		return (0.5 - ratio) * 20
	default:
		return (ratio - 2.0) * 10
	}
}

// connectingVias finds vias serving any of the capacitor's pads: same
// net, within the search radius. Board order, deduplicated.
func connectingVias(board *pcb.Design, capFp *pcb.Footprint) []*pcb.Via {
	seen := make(map[string]bool)
	var out []*pcb.Via
	for pi := range capFp.Pads {
		pad := &capFp.Pads[pi]
		if pad.NetID == 0 {
			continue
		}
		for vi := range board.Vias {
			v := &board.Vias[vi]
			if v.NetID != pad.NetID || seen[v.UUID] {
				continue
			}
			if v.Position.DistanceTo(pad.Position) <= viaSearchRadiusMM {
				seen[v.UUID] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// sharedViaWith reports whether any of the capacitor's vias also sits on
// another capacitor's pad of the same net. Returns the other reference
// and the via UUID, or empty strings.
func sharedViaWith(board *pcb.Design, capFp *pcb.Footprint, vias []*pcb.Via) (otherRef, viaUUID string) {
	for _, v := range vias {
		for fi := range board.Footprints {
			other := &board.Footprints[fi]
			if other.Reference == capFp.Reference || !strings.HasPrefix(other.Reference, "C") {
				continue
			}
			for pi := range other.Pads {
				pad := &other.Pads[pi]
				if pad.NetID != v.NetID {
					continue
				}
				if v.Position.DistanceTo(pad.Position) <= sharedViaRadiusMM {
					return other.Reference, v.UUID
				}
			}
		}
	}
	return "", ""
}

// neckDown flags a small pad fed from a plane through a skinny trace:
// the plane connection looks solid but the neck throttles it.
func neckDown(board *pcb.Design, capPad *pcb.Pad, capRef string) (Flag, bool) {
	const (
		smallPadWidthMM  = 1.5
		smallPadHeightMM = 1.0
		neckWidthMM      = 0.15
	)
	if capPad.NetID == 0 {
		return Flag{}, false
	}
	if capPad.Size.Width >= smallPadWidthMM || capPad.Size.Height >= smallPadHeightMM {
		return Flag{}, false
	}

	onPlane := false
	for zi := range board.Zones {
		z := &board.Zones[zi]
		if z.NetID == capPad.NetID && z.Filled {
			onPlane = true
			break
		}
	}
	if !onPlane {
		return Flag{}, false
	}

	for ti := range board.Traces {
		t := &board.Traces[ti]
		if t.NetID != capPad.NetID || t.WidthMM >= neckWidthMM {
			continue
		}
		return Flag{
			Kind:            FlagNeckDown,
			Capacitor:       capRef,
			TraceWidthMM:    t.WidthMM,
			PlaneConnection: true,
			Detail:          fmt.Sprintf("%s connects to a plane through a %.2f mm neck", capRef, t.WidthMM),
		}, true
	}
	return Flag{}, false
}

// powerPins picks the footprint pads on supply nets. For small packages
// with no recognizable supply net names, the first connected pad stands
// in so the IC is not dropped from analysis.
func powerPins(fp *pcb.Footprint) []*pcb.Pad {
	var out []*pcb.Pad
	for i := range fp.Pads {
		pad := &fp.Pads[i]
		if isPowerNetName(pad.NetName) {
			out = append(out, pad)
		}
	}
	if len(out) == 0 && len(fp.Pads) <= 8 {
		for i := range fp.Pads {
			if fp.Pads[i].NetID != 0 {
				out = append(out, &fp.Pads[i])
				break
			}
		}
	}
	return out
}

var powerNetMarkers = []string{"VDD", "VCC", "VIN", "POWER", "1.0V", "1.2V", "1.8V", "3.3V", "5V"}

func isPowerNetName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "+") {
		return true
	}
	upper := strings.ToUpper(name)
	for _, m := range powerNetMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// classifyCriticality ranks the IC's supply sensitivity. Known digital
// parts are at least high; core rails push anything to critical.
func classifyCriticality(icValue string, nets []*schema.Net) Criticality {
	upper := strings.ToUpper(icValue)
	for _, part := range []string{"STM32", "ESP32", "RP2040", "CPU", "MPU"} {
		if strings.Contains(upper, part) {
			if hasNetMarker(nets, "1.0V", "1.2V", "VDD_CORE") {
				return CriticalityCritical
			}
			return CriticalityHigh
		}
	}
	switch {
	case hasNetMarker(nets, "1.0V", "1.2V"):
		return CriticalityCritical
	case hasNetMarker(nets, "1.8V", "2.5V"):
		return CriticalityHigh
	case hasNetMarker(nets, "3.3V", "5V"):
		return CriticalityMedium
	case hasNetMarker(nets, "12V", "FAN", "LED"):
		return CriticalityLow
	default:
		return CriticalityMedium
	}
}

func hasNetMarker(nets []*schema.Net, markers ...string) bool {
	for _, n := range nets {
		upper := strings.ToUpper(n.Name)
		for _, m := range markers {
			if strings.Contains(upper, m) {
				return true
			}
		}
	}
	return false
}
