// Package pcb holds the physical board snapshot consumed by the risk
// engine: footprints with pads, routed trace segments, vias, and copper
// zones. The snapshot arrives fully parsed from an upstream adapter; this
// package only models and queries it.
package pcb

import "math"

// Point is a board position in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another point.
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size is a width/height pair in millimetres.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PadType distinguishes surface-mount from through-hole pads.
type PadType string

const (
	PadSMD      PadType = "smd"
	PadThruHole PadType = "thru_hole"
	PadConnect  PadType = "connect"
)

// Pad is a single pad on a footprint. NetID 0 means unconnected.
type Pad struct {
	Number  string   `json:"number"`
	Type    PadType  `json:"type"`
	Position Point   `json:"position"`
	Size    Size     `json:"size"`
	DrillMM float64  `json:"drill_mm,omitempty"`
	Layers  []string `json:"layers,omitempty"`
	NetID   uint32   `json:"net_id,omitempty"`
	NetName string   `json:"net_name,omitempty"`
}

// Footprint is a placed component on the board.
type Footprint struct {
	UUID      string  `json:"uuid"`
	Reference string  `json:"reference"`
	Value     string  `json:"value,omitempty"`
	Layer     string  `json:"layer"`
	Position  Point   `json:"position"`
	Rotation  float64 `json:"rotation,omitempty"`
	Pads      []Pad   `json:"pads"`
}

// Pad returns the pad with the given number, or nil.
func (f *Footprint) Pad(number string) *Pad {
	for i := range f.Pads {
		if f.Pads[i].Number == number {
			return &f.Pads[i]
		}
	}
	return nil
}

// PadOnNet returns the first pad attached to the given net ID, or nil.
func (f *Footprint) PadOnNet(netID uint32) *Pad {
	for i := range f.Pads {
		if f.Pads[i].NetID == netID {
			return &f.Pads[i]
		}
	}
	return nil
}

// Trace is one routed track segment.
type Trace struct {
	UUID    string  `json:"uuid"`
	Start   Point   `json:"start"`
	End     Point   `json:"end"`
	WidthMM float64 `json:"width_mm"`
	Layer   string  `json:"layer"`
	NetID   uint32  `json:"net_id"`
	NetName string  `json:"net_name,omitempty"`
}

// LengthMM returns the segment length in millimetres.
func (t *Trace) LengthMM() float64 {
	return t.Start.DistanceTo(t.End)
}

// Via is a vertical interconnect between two copper layers.
type Via struct {
	UUID     string    `json:"uuid"`
	Position Point     `json:"position"`
	SizeMM   float64   `json:"size_mm"`
	DrillMM  float64   `json:"drill_mm"`
	Layers   [2]string `json:"layers"`
	NetID    uint32    `json:"net_id"`
	NetName  string    `json:"net_name,omitempty"`
}

// Zone is a filled copper pour.
type Zone struct {
	UUID    string  `json:"uuid"`
	NetID   uint32  `json:"net_id"`
	NetName string  `json:"net_name,omitempty"`
	Layer   string  `json:"layer"`
	Filled  bool    `json:"filled"`
	Outline []Point `json:"outline"`
}

// Contains reports whether the point falls inside the zone's bounding box.
// A full point-in-polygon test is unnecessary for connectivity purposes:
// pours are convex-ish rectangles in practice and the check only gates
// whether a trace endpoint may join the pour.
func (z *Zone) Contains(p Point) bool {
	if len(z.Outline) == 0 {
		return false
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, o := range z.Outline {
		minX = math.Min(minX, o.X)
		maxX = math.Max(maxX, o.X)
		minY = math.Min(minY, o.Y)
		maxY = math.Max(maxY, o.Y)
	}
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// Net identifies a board net by numeric ID and name.
type Net struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Design is the complete parsed board snapshot.
type Design struct {
	UUID        string      `json:"uuid,omitempty"`
	Name        string      `json:"name,omitempty"`
	ThicknessMM float64     `json:"thickness_mm,omitempty"`
	Nets        []Net       `json:"nets"`
	Footprints  []Footprint `json:"footprints"`
	Traces      []Trace     `json:"traces"`
	Vias        []Via       `json:"vias"`
	Zones       []Zone      `json:"zones"`
}

// DefaultBoardThicknessMM is assumed when the snapshot does not carry a
// board stackup (standard 1.6 mm FR-4).
const DefaultBoardThicknessMM = 1.6

// Thickness returns the board thickness, falling back to the standard
// 1.6 mm when unset.
func (d *Design) Thickness() float64 {
	if d.ThicknessMM > 0 {
		return d.ThicknessMM
	}
	return DefaultBoardThicknessMM
}

// NetID resolves a net name to its numeric ID. Leading '+' is ignored so
// "+3V3" and "3V3" resolve identically. Returns false when absent.
func (d *Design) NetID(name string) (uint32, bool) {
	stripped := stripPlus(name)
	for _, n := range d.Nets {
		if n.Name == name || stripPlus(n.Name) == stripped {
			return n.ID, true
		}
	}
	return 0, false
}

// Footprint returns the footprint with the given reference, or nil.
func (d *Design) Footprint(reference string) *Footprint {
	for i := range d.Footprints {
		if d.Footprints[i].Reference == reference {
			return &d.Footprints[i]
		}
	}
	return nil
}

func stripPlus(s string) string {
	if len(s) > 0 && s[0] == '+' {
		return s[1:]
	}
	return s
}
