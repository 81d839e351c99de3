package decoupling

import (
	"reflect"
	"testing"

	"github.com/dd0wney/cluso-circuit/pkg/capclass"
	"github.com/dd0wney/cluso-circuit/pkg/circuit"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

// buildMCUBoard wires an MCU with one HF bypass cap, one bulk cap, and a
// far-away cap outside the proximity cutoff.
func buildMCUBoard(t *testing.T) *schema.Schematic {
	t.Helper()
	s := schema.NewSchematic("board")

	u1 := schema.NewComponent("U1")
	u1.Value = "STM32F103"
	u1.Position = &schema.Position{X: 50, Y: 50}
	s.AddComponent(u1)

	addCap := func(ref, value, footprint string, x, y float64) {
		c := schema.NewComponent(ref)
		c.Value = value
		c.Footprint = footprint
		c.Position = &schema.Position{X: x, Y: y}
		s.AddComponent(c)
	}
	addCap("C1", "100nF", "C_0402", 52, 50)  // HF bypass, 2mm away
	addCap("C2", "10uF", "C_1206", 58, 50)   // bulk, 8mm away
	addCap("C3", "100nF", "C_0402", 120, 50) // 70mm away, outside group

	vcc := schema.NewNet("+3V3")
	gnd := schema.NewNet("GND")
	vcc.AddConnection("U1", "1")
	gnd.AddConnection("U1", "2")
	for _, ref := range []string{"C1", "C2", "C3"} {
		vcc.AddConnection(ref, "1")
		gnd.AddConnection(ref, "2")
	}
	s.AddNet(vcc)
	s.AddNet(gnd)

	return s
}

func classify(t *testing.T, s *schema.Schematic) []capclass.Classification {
	t.Helper()
	return capclass.New(nil).ClassifyAll(s)
}

func TestGroupsFromGraph(t *testing.T) {
	s := buildMCUBoard(t)
	g := circuit.FromSchematic(s)

	groups := NewAnalyzer(nil).GroupsFromGraph(g, classify(t, s))
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	grp := groups[0]
	if grp.ICRef != "U1" || grp.PowerNet != "+3V3" || grp.GroundNet != "GND" {
		t.Fatalf("group identity = %s/%s/%s", grp.ICRef, grp.PowerNet, grp.GroundNet)
	}
	if len(grp.Capacitors) != 2 {
		t.Fatalf("got %d capacitors, want 2 (C3 is outside the cutoff): %+v", len(grp.Capacitors), grp.Capacitors)
	}
	if grp.Capacitors[0].Ref != "C1" || grp.Capacitors[1].Ref != "C2" {
		t.Errorf("capacitor order = %s, %s; want C1, C2", grp.Capacitors[0].Ref, grp.Capacitors[1].Ref)
	}

	if !grp.Capacitors[0].IsHFBypass || grp.Capacitors[0].IsBulk {
		t.Errorf("C1 roles = %+v, want HF bypass only", grp.Capacitors[0])
	}
	if !grp.Capacitors[1].IsBulk || grp.Capacitors[1].IsHFBypass {
		t.Errorf("C2 roles = %+v, want bulk only", grp.Capacitors[1])
	}

	if !grp.HasBoth() {
		t.Error("expected both HF bypass and bulk present")
	}
	if grp.HFBypassDistanceMM == nil || *grp.HFBypassDistanceMM != 2.0 {
		t.Errorf("HF bypass distance = %v, want 2.0", grp.HFBypassDistanceMM)
	}
}

func TestGraphAndSchematicPathsAgree(t *testing.T) {
	s := buildMCUBoard(t)
	cls := classify(t, s)
	a := NewAnalyzer(nil)

	fromGraph := a.GroupsFromGraph(circuit.FromSchematic(s), cls)
	fromSchematic := a.GroupsFromSchematic(s, cls)

	if !reflect.DeepEqual(fromGraph, fromSchematic) {
		t.Errorf("paths disagree:\ngraph:     %+v\nschematic: %+v", fromGraph, fromSchematic)
	}
}

func TestMissingBulk(t *testing.T) {
	s := schema.NewSchematic("board")
	u1 := schema.NewComponent("U1")
	u1.Position = &schema.Position{X: 0, Y: 0}
	s.AddComponent(u1)

	c1 := schema.NewComponent("C1")
	c1.Value = "100nF"
	c1.Footprint = "C_0402"
	c1.Position = &schema.Position{X: 3, Y: 0}
	s.AddComponent(c1)

	vcc := schema.NewNet("+3V3")
	gnd := schema.NewNet("GND")
	vcc.AddConnection("U1", "1")
	vcc.AddConnection("C1", "1")
	gnd.AddConnection("U1", "2")
	gnd.AddConnection("C1", "2")
	s.AddNet(vcc)
	s.AddNet(gnd)

	groups := NewAnalyzer(nil).GroupsFromGraph(circuit.FromSchematic(s), classify(t, s))
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if !groups[0].HasHFBypass {
		t.Error("expected HF bypass present")
	}
	if groups[0].HasBulk {
		t.Error("expected bulk missing")
	}
	if groups[0].HasBoth() {
		t.Error("HasBoth should be false")
	}
}

func TestVirtualICsSkipped(t *testing.T) {
	s := buildMCUBoard(t)
	s.Component("U1").IsVirtual = true

	groups := NewAnalyzer(nil).GroupsFromGraph(circuit.FromSchematic(s), classify(t, s))
	if len(groups) != 0 {
		t.Fatalf("got %d groups for a virtual IC, want 0", len(groups))
	}
}

func TestClassifyCapType(t *testing.T) {
	hf, bulk := classifyCapType("100nF", capclass.FunctionDecoupling)
	if !hf || bulk {
		t.Errorf("100nF decoupling = (%v, %v), want (true, false)", hf, bulk)
	}

	hf, bulk = classifyCapType("10uF", capclass.FunctionBulk)
	if hf || !bulk {
		t.Errorf("10uF bulk = (%v, %v), want (false, true)", hf, bulk)
	}

	// right value range but wrong classified function
	hf, bulk = classifyCapType("100nF", capclass.FunctionFiltering)
	if hf || bulk {
		t.Errorf("100nF filtering = (%v, %v), want (false, false)", hf, bulk)
	}

	hf, bulk = classifyCapType("garbage", capclass.FunctionDecoupling)
	if hf || bulk {
		t.Errorf("unparseable value should be neither")
	}
}
