package drs

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-circuit/pkg/decoupling"
	"github.com/dd0wney/cluso-circuit/pkg/pcb"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

func approx(t *testing.T, got, want, tol float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g", what, got, want)
	}
}

func TestSwitchingFreqLookup(t *testing.T) {
	tables := DefaultTables()
	cases := []struct {
		value string
		want  float64
	}{
		{"STM32F411CEU6", 100},
		{"STM32F407VGT6", 168},
		{"ESP32-WROOM-32", 240},
		{"RP2040", 133},
		{"Spartan-7 FPGA", 500},
		{"LM358", DefaultSwitchingFreqMHz},
	}
	for _, c := range cases {
		if got := tables.ICSwitchingFreqMHz(c.value); got != c.want {
			t.Errorf("ICSwitchingFreqMHz(%q) = %g, want %g", c.value, got, c.want)
		}
	}
}

func TestSRFLookup(t *testing.T) {
	tables := DefaultTables()
	if got := tables.CapacitorSRFMHz("100nF"); got != 30.0 {
		t.Errorf("SRF(100nF) = %g, want 30", got)
	}
	if got := tables.CapacitorSRFMHz("10uF"); got != 3.0 {
		t.Errorf("SRF(10uF) = %g, want 3", got)
	}
	if got := tables.CapacitorSRFMHz("not a value"); got != DefaultSRFMHz {
		t.Errorf("SRF(garbage) = %g, want default %g", got, DefaultSRFMHz)
	}
	// 330nF is not in the library: SRF = 3000/sqrt(330e-9) Hz
	approx(t, tables.CapacitorSRFMHz("330nF"), 5.222, 0.01, "SRF(330nF)")
}

func TestMaxInductanceLookup(t *testing.T) {
	tables := DefaultTables()
	limit, ok := tables.MaxInductanceNH("STM32H743ZIT6")
	if !ok || limit != 3.0 {
		t.Errorf("MaxInductanceNH(STM32H743) = %g, %v; want 3.0, true", limit, ok)
	}
	if _, ok := tables.MaxInductanceNH("LM358"); ok {
		t.Error("MaxInductanceNH(LM358) should not match")
	}
}

func TestMismatchPenalty(t *testing.T) {
	if got := mismatchPenalty(50, 30); got != 0 {
		t.Errorf("penalty in band = %g, want 0", got)
	}
	approx(t, mismatchPenalty(100, 30), 13.333, 0.01, "penalty above band")
	approx(t, mismatchPenalty(10, 100), 8.0, 0.001, "penalty below band")
	if got := mismatchPenalty(0, 30); got != 5.0 {
		t.Errorf("penalty with unknown freq = %g, want 5", got)
	}
}

func TestTraceInductance(t *testing.T) {
	// 0.2 * 10 * ln(80)
	approx(t, TraceInductanceNH(10, 0.25), 8.764, 0.01, "trace inductance")
	if got := TraceInductanceNH(0, 0.25); got != 0 {
		t.Errorf("zero-length trace = %g, want 0", got)
	}
}

func TestViaInductance(t *testing.T) {
	// 1.6 mm barrel, 0.3 mm drill
	approx(t, ViaInductanceNH(1.6, 0.3), 1.299, 0.01, "via inductance")
	if got := ViaInductanceNH(0, 0.3); got != 0 {
		t.Errorf("zero-height via = %g, want 0", got)
	}
}

// twoLayerBoard routes VDD across two layers through one via:
// (0,0)-(5,0) on F.Cu, via at (5,0), (5,0)-(10,0) on B.Cu.
func twoLayerBoard(t *testing.T) *pcb.Design {
	t.Helper()
	return &pcb.Design{
		Nets: []pcb.Net{{ID: 1, Name: "VDD"}},
		Traces: []pcb.Trace{
			{UUID: "t1", Start: pcb.Point{X: 0, Y: 0}, End: pcb.Point{X: 5, Y: 0}, WidthMM: 0.25, Layer: "F.Cu", NetID: 1},
			{UUID: "t2", Start: pcb.Point{X: 5, Y: 0}, End: pcb.Point{X: 10, Y: 0}, WidthMM: 0.25, Layer: "B.Cu", NetID: 1},
		},
		Vias: []pcb.Via{
			{UUID: "v1", Position: pcb.Point{X: 5, Y: 0}, SizeMM: 0.6, DrillMM: 0.3, Layers: [2]string{"F.Cu", "B.Cu"}, NetID: 1},
		},
	}
}

func TestTracePathAcrossVia(t *testing.T) {
	board := twoLayerBoard(t)

	pa, err := TracePath(board, "VDD", pcb.Point{X: 0, Y: 0}, pcb.Point{X: 10, Y: 0})
	if err != nil {
		t.Fatalf("TracePath: %v", err)
	}
	if len(pa.Segments) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(pa.Segments), pa.Segments)
	}
	kinds := []SegmentKind{pa.Segments[0].Kind, pa.Segments[1].Kind, pa.Segments[2].Kind}
	if kinds[0] != SegmentTrace || kinds[1] != SegmentVia || kinds[2] != SegmentTrace {
		t.Errorf("segment kinds = %v", kinds)
	}
	approx(t, pa.TotalLengthMM, 10.1, 0.001, "total length")
	if pa.ViaCount != 1 {
		t.Errorf("via count = %d, want 1", pa.ViaCount)
	}
	if pa.PrimaryLayer != "F.Cu" {
		t.Errorf("primary layer = %q, want F.Cu", pa.PrimaryLayer)
	}
}

func TestTracePathDisconnected(t *testing.T) {
	board := twoLayerBoard(t)
	board.Traces = append(board.Traces, pcb.Trace{
		UUID: "t3", Start: pcb.Point{X: 50, Y: 50}, End: pcb.Point{X: 55, Y: 50},
		WidthMM: 0.25, Layer: "F.Cu", NetID: 1,
	})

	_, err := TracePath(board, "VDD", pcb.Point{X: 0, Y: 0}, pcb.Point{X: 50, Y: 50})
	if err != ErrNoPath {
		t.Fatalf("err = %v, want ErrNoPath", err)
	}
}

func TestTracePathUnknownNet(t *testing.T) {
	if _, err := TracePath(twoLayerBoard(t), "NOPE", pcb.Point{}, pcb.Point{}); err != ErrNetNotFound {
		t.Fatalf("err = %v, want ErrNetNotFound", err)
	}
}

func TestTracePathZoneOnly(t *testing.T) {
	board := &pcb.Design{
		Nets: []pcb.Net{{ID: 2, Name: "GND"}},
		Zones: []pcb.Zone{{
			UUID: "z1", NetID: 2, Layer: "B.Cu", Filled: true,
			Outline: []pcb.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
		}},
	}

	pa, err := TracePath(board, "GND", pcb.Point{X: 10, Y: 10}, pcb.Point{X: 40, Y: 50})
	if err != nil {
		t.Fatalf("TracePath: %v", err)
	}
	if len(pa.Segments) != 1 || pa.Segments[0].Kind != SegmentZone {
		t.Fatalf("segments = %+v, want single zone hop", pa.Segments)
	}
	approx(t, pa.TotalLengthMM, 50.0, 0.001, "zone hop length")
}

// mcuFixture is a schematic plus board for one STM32 with one 100nF cap
// 2 mm from its power pin.
func mcuFixture(t *testing.T) (*schema.Schematic, *pcb.Design, []decoupling.Group) {
	t.Helper()

	s := schema.NewSchematic("board")
	u1 := schema.NewComponent("U1")
	u1.Value = "STM32F103"
	s.AddComponent(u1)
	c1 := schema.NewComponent("C1")
	c1.Value = "100nF"
	s.AddComponent(c1)

	vcc := schema.NewNet("+3V3")
	gnd := schema.NewNet("GND")
	vcc.AddConnection("U1", "1")
	vcc.AddConnection("C1", "1")
	gnd.AddConnection("U1", "2")
	gnd.AddConnection("C1", "2")
	s.AddNet(vcc)
	s.AddNet(gnd)

	board := &pcb.Design{
		Nets: []pcb.Net{{ID: 1, Name: "+3V3"}, {ID: 2, Name: "GND"}},
		Footprints: []pcb.Footprint{
			{
				Reference: "U1", Value: "STM32F103", Layer: "F.Cu",
				Position: pcb.Point{X: 50, Y: 50},
				Pads: []pcb.Pad{
					{Number: "1", Position: pcb.Point{X: 50, Y: 50}, Size: pcb.Size{Width: 2, Height: 2}, NetID: 1, NetName: "+3V3"},
					{Number: "2", Position: pcb.Point{X: 50, Y: 52}, Size: pcb.Size{Width: 2, Height: 2}, NetID: 2, NetName: "GND"},
				},
			},
			{
				Reference: "C1", Value: "100nF", Layer: "F.Cu",
				Position: pcb.Point{X: 52, Y: 50},
				Pads: []pcb.Pad{
					{Number: "1", Position: pcb.Point{X: 52, Y: 50}, Size: pcb.Size{Width: 2, Height: 2}, NetID: 1, NetName: "+3V3"},
					{Number: "2", Position: pcb.Point{X: 52, Y: 52}, Size: pcb.Size{Width: 2, Height: 2}, NetID: 2, NetName: "GND"},
				},
			},
		},
	}

	groups := []decoupling.Group{{
		ICRef:      "U1",
		PowerNet:   "+3V3",
		GroundNet:  "GND",
		Capacitors: []decoupling.CapacitorAnalysis{{Ref: "C1", Value: "100nF"}},
	}}

	return s, board, groups
}

func TestAnalyzeSingleIC(t *testing.T) {
	s, board, groups := mcuFixture(t)

	scores := NewEngine(nil, nil).Analyze(s, board, groups)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	sc := scores[0]

	if sc.ICRef != "U1" {
		t.Errorf("ic = %s, want U1", sc.ICRef)
	}
	if sc.Criticality != CriticalityHigh {
		t.Errorf("criticality = %s, want high", sc.Criticality)
	}
	if len(sc.Capacitors) != 1 {
		t.Fatalf("got %d capacitors, want 1", len(sc.Capacitors))
	}

	cr := sc.Capacitors[0]
	approx(t, cr.DistanceMM, 2.0, 0.001, "distance")
	approx(t, cr.ProximityPenalty, 4.0, 0.001, "proximity penalty")
	if cr.ViaCount != 0 || cr.DogBoneLengthMM != 0 {
		t.Errorf("vias = %d, dog bone = %g; want none", cr.ViaCount, cr.DogBoneLengthMM)
	}
	if cr.MismatchPenalty != 0 {
		t.Errorf("mismatch penalty = %g, want 0 (50 MHz vs 30 MHz SRF)", cr.MismatchPenalty)
	}

	// proximity 4.0 averaged over 1 cap * 0.4 weight * 0.7 criticality
	approx(t, sc.Risk, 1.12, 0.001, "risk")
	if len(sc.Flags) != 0 {
		t.Errorf("unexpected flags: %+v", sc.Flags)
	}
}

func TestPathTracedFromSupplyPad(t *testing.T) {
	s, board, groups := mcuFixture(t)

	// list C1's ground pad first and route the supply net
	fp := &board.Footprints[1]
	fp.Pads[0], fp.Pads[1] = fp.Pads[1], fp.Pads[0]
	board.Traces = append(board.Traces, pcb.Trace{
		UUID: "t1", Start: pcb.Point{X: 52, Y: 50}, End: pcb.Point{X: 50, Y: 50},
		WidthMM: 0.25, Layer: "F.Cu", NetID: 1,
	})

	scores := NewEngine(nil, nil).Analyze(s, board, groups)
	if len(scores) != 1 || len(scores[0].Capacitors) != 1 {
		t.Fatalf("got %d scores: %+v", len(scores), scores)
	}
	cr := scores[0].Capacitors[0]

	// distance is between the supply pads, not from the ground pad
	approx(t, cr.DistanceMM, 2.0, 0.001, "distance")

	if cr.Path == nil {
		t.Fatal("no path traced")
	}
	if cr.Path.NetName != "+3V3" {
		t.Errorf("path net = %q, want +3V3", cr.Path.NetName)
	}
	if n := len(cr.Path.Segments); n != 3 {
		t.Fatalf("got %d segments, want pad/trace/pad: %+v", n, cr.Path.Segments)
	}
	first, last := cr.Path.Segments[0], cr.Path.Segments[2]
	if first.Kind != SegmentPad || first.Ref != "C1" || first.PadNumber != "1" {
		t.Errorf("first segment = %+v, want C1 pad 1", first)
	}
	if cr.Path.Segments[1].Kind != SegmentTrace || cr.Path.Segments[1].UUID != "t1" {
		t.Errorf("middle segment = %+v, want trace t1", cr.Path.Segments[1])
	}
	if last.Kind != SegmentPad || last.Ref != "U1" || last.PadNumber != "1" {
		t.Errorf("last segment = %+v, want U1 pad 1", last)
	}
}

func TestAnalyzeCaplessICGetsMaxRisk(t *testing.T) {
	s, board, _ := mcuFixture(t)

	scores := NewEngine(nil, nil).Analyze(s, board, nil)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	if scores[0].Risk != MaxRisk {
		t.Errorf("risk = %g, want %g", scores[0].Risk, MaxRisk)
	}
	if len(scores[0].Capacitors) != 0 {
		t.Errorf("capacitors = %+v, want empty", scores[0].Capacitors)
	}
}

func TestAnalyzeSkipsICWithoutFootprint(t *testing.T) {
	s, board, groups := mcuFixture(t)
	board.Footprints = board.Footprints[1:] // drop U1

	if scores := NewEngine(nil, nil).Analyze(s, board, groups); len(scores) != 0 {
		t.Fatalf("got %d scores for off-board IC, want 0", len(scores))
	}
}

func TestSharedViaFlag(t *testing.T) {
	s, board, groups := mcuFixture(t)

	// a ground via between C1 and a second cap's ground pad
	board.Vias = append(board.Vias, pcb.Via{
		UUID: "v1", Position: pcb.Point{X: 53, Y: 52}, SizeMM: 0.6, DrillMM: 0.3,
		Layers: [2]string{"F.Cu", "B.Cu"}, NetID: 2,
	})
	board.Footprints = append(board.Footprints, pcb.Footprint{
		Reference: "C2", Value: "100nF", Layer: "F.Cu",
		Position: pcb.Point{X: 54, Y: 52},
		Pads: []pcb.Pad{
			{Number: "2", Position: pcb.Point{X: 54, Y: 52}, Size: pcb.Size{Width: 2, Height: 2}, NetID: 2, NetName: "GND"},
		},
	})

	scores := NewEngine(nil, nil).Analyze(s, board, groups)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	sc := scores[0]

	if !sc.Capacitors[0].SharedVia {
		t.Fatal("expected shared via on C1")
	}
	var found *Flag
	for i := range sc.Flags {
		if sc.Flags[i].Kind == FlagSharedVia {
			found = &sc.Flags[i]
		}
	}
	if found == nil {
		t.Fatalf("no shared via flag in %+v", sc.Flags)
	}
	if found.Capacitor != "C1" || found.OtherCapacitor != "C2" || found.ViaUUID != "v1" {
		t.Errorf("flag = %+v, want C1/C2/v1", found)
	}
}

func TestBacksideOffsetFlag(t *testing.T) {
	s, board, groups := mcuFixture(t)
	board.Footprints[1].Layer = "B.Cu" // move C1 to the back

	scores := NewEngine(nil, nil).Analyze(s, board, groups)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	if len(scores[0].Flags) != 1 || scores[0].Flags[0].Kind != FlagBacksideOffset {
		t.Fatalf("flags = %+v, want one backside offset", scores[0].Flags)
	}
}

func TestNeckDownFlag(t *testing.T) {
	s, board, groups := mcuFixture(t)

	// shrink C1's power pad, pour a plane on its net, and feed it
	// through a 0.1 mm trace
	board.Footprints[1].Pads[0].Size = pcb.Size{Width: 0.5, Height: 0.5}
	board.Zones = append(board.Zones, pcb.Zone{
		UUID: "z1", NetID: 1, Layer: "F.Cu", Filled: true,
		Outline: []pcb.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
	})
	board.Traces = append(board.Traces, pcb.Trace{
		UUID: "t1", Start: pcb.Point{X: 52, Y: 50}, End: pcb.Point{X: 51, Y: 50},
		WidthMM: 0.1, Layer: "F.Cu", NetID: 1,
	})

	scores := NewEngine(nil, nil).Analyze(s, board, groups)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	var found *Flag
	for i := range scores[0].Flags {
		if scores[0].Flags[i].Kind == FlagNeckDown {
			found = &scores[0].Flags[i]
		}
	}
	if found == nil {
		t.Fatalf("no neck down flag in %+v", scores[0].Flags)
	}
	if found.TraceWidthMM != 0.1 || !found.PlaneConnection {
		t.Errorf("flag = %+v, want 0.1 mm neck on plane", found)
	}
}

func TestPowerPinFallbackSmallPackage(t *testing.T) {
	fp := &pcb.Footprint{
		Reference: "U2",
		Pads: []pcb.Pad{
			{Number: "1", NetID: 0},
			{Number: "2", NetID: 7, NetName: "NET_A"},
			{Number: "3", NetID: 8, NetName: "NET_B"},
		},
	}
	pins := powerPins(fp)
	if len(pins) != 1 || pins[0].Number != "2" {
		t.Fatalf("fallback pins = %+v, want first connected pad", pins)
	}
}

func TestCriticality(t *testing.T) {
	core := []*schema.Net{{Name: "VDD_CORE_1.2V"}}
	if got := classifyCriticality("STM32H743", core); got != CriticalityCritical {
		t.Errorf("STM32 on core rail = %s, want critical", got)
	}
	if got := classifyCriticality("STM32F103", []*schema.Net{{Name: "+3V3"}}); got != CriticalityHigh {
		t.Errorf("STM32 on 3V3 = %s, want high", got)
	}
	if got := classifyCriticality("74HC595", []*schema.Net{{Name: "+3V3"}}); got != CriticalityMedium {
		t.Errorf("logic on 3V3 = %s, want medium", got)
	}
	if got := classifyCriticality("ULN2003", []*schema.Net{{Name: "FAN_12V"}}); got != CriticalityLow {
		t.Errorf("driver on fan rail = %s, want low", got)
	}
	if got := classifyCriticality("74HC595", nil); got != CriticalityMedium {
		t.Errorf("no nets = %s, want medium", got)
	}
}
