package circuit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dd0wney/cluso-circuit/pkg/schema"
)

// buildTestSchematic wires a small regulator circuit:
//
//	U1 (MCU) -- +3V3 -- C1, U2 (regulator output)
//	U1       -- GND  -- C1, U2
//	U1       -- SDA  -- R1
func buildTestSchematic(t *testing.T) *schema.Schematic {
	t.Helper()

	s := schema.NewSchematic("test")

	u1 := schema.NewComponent("U1")
	u1.AddPin(schema.Pin{Number: "1", Name: "VDD", ConnectedNet: "+3V3"})
	u1.AddPin(schema.Pin{Number: "2", Name: "GND", ConnectedNet: "GND"})
	u1.AddPin(schema.Pin{Number: "3", Name: "SDA", ConnectedNet: "SDA"})
	u1.Position = &schema.Position{X: 0, Y: 0}
	s.AddComponent(u1)

	u2 := schema.NewComponent("U2")
	u2.MPN = "AMS1117-3.3"
	u2.Position = &schema.Position{X: 30, Y: 0}
	s.AddComponent(u2)

	c1 := schema.NewComponent("C1")
	c1.Value = "100nF"
	c1.Position = &schema.Position{X: 2, Y: 0}
	s.AddComponent(c1)

	r1 := schema.NewComponent("R1")
	r1.Value = "4k7"
	r1.Position = &schema.Position{X: 5, Y: 0}
	s.AddComponent(r1)

	vcc := schema.NewNet("+3V3")
	vcc.AddConnection("U1", "1")
	vcc.AddConnection("C1", "1")
	vcc.AddConnection("U2", "2")
	s.AddNet(vcc)

	gnd := schema.NewNet("GND")
	gnd.AddConnection("U1", "2")
	gnd.AddConnection("C1", "2")
	gnd.AddConnection("U2", "1")
	s.AddNet(gnd)

	sda := schema.NewNet("SDA")
	sda.AddConnection("U1", "3")
	sda.AddConnection("R1", "1")
	s.AddNet(sda)

	return s
}

func TestFromSchematicRoundTrip(t *testing.T) {
	s := buildTestSchematic(t)
	g := FromSchematic(s)

	back := g.ToSchematic("test")
	if len(back.Components) != len(s.Components) {
		t.Fatalf("round trip lost components: got %d, want %d", len(back.Components), len(s.Components))
	}
	if len(back.Nets) != len(s.Nets) {
		t.Fatalf("round trip lost nets: got %d, want %d", len(back.Nets), len(s.Nets))
	}
	for i, n := range back.Nets {
		orig := s.Nets[i]
		if n.Name != orig.Name {
			t.Errorf("net %d: name %q, want %q", i, n.Name, orig.Name)
		}
		if !reflect.DeepEqual(n.Connections, orig.Connections) {
			t.Errorf("net %s: connections %v, want %v", n.Name, n.Connections, orig.Connections)
		}
	}
}

func TestFromSchematicMergesDuplicateNets(t *testing.T) {
	s := schema.NewSchematic("dup")
	s.AddComponent(schema.NewComponent("U1"))
	s.AddComponent(schema.NewComponent("C1"))

	a := schema.NewNet("VDD")
	a.AddConnection("U1", "1")
	s.AddNet(a)
	b := schema.NewNet("VDD")
	b.AddConnection("C1", "1")
	s.AddNet(b)

	g := FromSchematic(s)
	if got := g.Stats().Nets; got != 1 {
		t.Fatalf("nets = %d, want 1", got)
	}

	id, ok := g.Net("VDD")
	if !ok {
		t.Fatal("VDD not in graph")
	}
	if got := len(g.Neighbors(id)); got != 2 {
		t.Fatalf("VDD has %d attachments, want 2", got)
	}

	back := g.ToSchematic("dup")
	net := back.Net("VDD")
	if net == nil || len(net.Connections) != 2 {
		t.Fatalf("round trip connections = %+v, want U1 and C1", net)
	}
	if !net.HasComponent("U1") || !net.HasComponent("C1") {
		t.Errorf("round trip lost an attachment: %+v", net.Connections)
	}
}

func TestComponentsOnNet(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	comps, err := g.ComponentsOnNet("+3V3")
	if err != nil {
		t.Fatalf("ComponentsOnNet: %v", err)
	}
	var refs []string
	for _, c := range comps {
		refs = append(refs, c.RefDes)
	}
	want := []string{"U1", "C1", "U2"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ComponentsOnNet(+3V3) = %v, want %v", refs, want)
	}

	if _, err := g.ComponentsOnNet("NOPE"); !errors.Is(err, ErrNetNotFound) {
		t.Errorf("expected ErrNetNotFound, got %v", err)
	}
}

func TestNetsForComponent(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	nets, err := g.NetsForComponent("U1")
	if err != nil {
		t.Fatalf("NetsForComponent: %v", err)
	}
	var names []string
	for _, n := range nets {
		names = append(names, n.Name)
	}
	want := []string{"+3V3", "GND", "SDA"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("NetsForComponent(U1) = %v, want %v", names, want)
	}

	if _, err := g.NetsForComponent("U99"); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestConnectionPin(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	if pin := g.ConnectionPin("U1", "GND"); pin != "2" {
		t.Errorf("ConnectionPin(U1, GND) = %q, want 2", pin)
	}
	if pin := g.ConnectionPin("R1", "GND"); pin != "" {
		t.Errorf("ConnectionPin(R1, GND) = %q, want empty", pin)
	}
}

func TestFindPath(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	path, err := g.FindPath("C1", "R1")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	want := []string{"C1", "+3V3", "U1", "SDA", "R1"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("FindPath(C1, R1) = %v, want %v", path, want)
	}
}

func TestFindPathSameComponent(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))
	path, err := g.FindPath("U1", "U1")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if !reflect.DeepEqual(path, []string{"U1"}) {
		t.Errorf("FindPath(U1, U1) = %v, want [U1]", path)
	}
}

func TestFindPathDisconnected(t *testing.T) {
	s := buildTestSchematic(t)
	iso := schema.NewComponent("J1")
	s.AddComponent(iso)
	g := FromSchematic(s)

	path, err := g.FindPath("U1", "J1")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path != nil {
		t.Errorf("expected nil path for disconnected components, got %v", path)
	}
}

func TestFindPathUnknownComponent(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))
	if _, err := g.FindPath("U1", "U99"); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestComponentsNear(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	near, err := g.ComponentsNear("U1", 10)
	if err != nil {
		t.Fatalf("ComponentsNear: %v", err)
	}
	var refs []string
	for _, c := range near {
		refs = append(refs, c.RefDes)
	}
	// C1 at 2mm, R1 at 5mm; U2 at 30mm is outside
	want := []string{"C1", "R1"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ComponentsNear(U1, 10) = %v, want %v", refs, want)
	}
}

func TestCapacitorsNear(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	caps, err := g.CapacitorsNear("U1", 10)
	if err != nil {
		t.Fatalf("CapacitorsNear: %v", err)
	}
	if len(caps) != 1 || caps[0].RefDes != "C1" {
		t.Errorf("CapacitorsNear(U1, 10) = %v, want [C1]", caps)
	}
}

func TestSlice(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	sub, err := g.Slice("slice", "R1")
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	// R1 touches only SDA; SDA touches U1 and R1.
	if len(sub.Nets) != 1 || sub.Nets[0].Name != "SDA" {
		t.Fatalf("Slice nets = %v, want [SDA]", sub.Nets)
	}
	var refs []string
	for _, c := range sub.Components {
		refs = append(refs, c.RefDes)
	}
	want := []string{"U1", "R1"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("Slice components = %v, want %v", refs, want)
	}

	if _, err := g.Slice("slice", "U99"); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	g := FromSchematic(buildTestSchematic(t))

	got := g.Stats()
	want := Stats{Components: 4, Nets: 3, Edges: 8, ICs: 2, PowerNets: 2}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestDuplicateInserts(t *testing.T) {
	g := New()
	if _, err := g.AddComponent(schema.NewComponent("U1")); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if _, err := g.AddComponent(schema.NewComponent("U1")); !errors.Is(err, ErrDuplicateComponent) {
		t.Errorf("expected ErrDuplicateComponent, got %v", err)
	}
	if _, err := g.AddNet(schema.NewNet("GND")); err != nil {
		t.Fatalf("AddNet: %v", err)
	}
	if _, err := g.AddNet(schema.NewNet("GND")); !errors.Is(err, ErrDuplicateNet) {
		t.Errorf("expected ErrDuplicateNet, got %v", err)
	}
}
