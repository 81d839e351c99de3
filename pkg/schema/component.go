package schema

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Position is a 2D schematic position in millimetres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another position.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// ElectricalType describes the electrical role of a pin.
type ElectricalType string

const (
	PinInput         ElectricalType = "input"
	PinOutput        ElectricalType = "output"
	PinBidirectional ElectricalType = "bidirectional"
	PinPassive       ElectricalType = "passive"
	PinPowerIn       ElectricalType = "power_in"
	PinPowerOut      ElectricalType = "power_out"
	PinNoConnect     ElectricalType = "no_connect"
	PinUnspecified   ElectricalType = "unspecified"
)

// Pin is a single pin on a component.
type Pin struct {
	Number         string         `json:"number"`
	Name           string         `json:"name,omitempty"`
	ElectricalType ElectricalType `json:"electrical_type,omitempty"`
	ConnectedNet   string         `json:"connected_net,omitempty"`
}

// Component is a schematic component in the CAD-agnostic schema.
type Component struct {
	RefDes     string            `json:"ref_des"`
	MPN        string            `json:"mpn,omitempty"`
	Value      string            `json:"value,omitempty"`
	Footprint  string            `json:"footprint,omitempty"`
	LibID      string            `json:"lib_id,omitempty"`
	IsVirtual  bool              `json:"is_virtual,omitempty"`
	Pins       []Pin             `json:"pins,omitempty"`
	Position   *Position         `json:"position,omitempty"`
	Rotation   float64           `json:"rotation,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	UUID       string            `json:"uuid,omitempty"`
}

// NewComponent creates a component with a fresh UUID.
func NewComponent(refDes string) *Component {
	return &Component{
		RefDes: refDes,
		UUID:   uuid.NewString(),
	}
}

// AddPin appends a pin to the component.
func (c *Component) AddPin(pin Pin) {
	c.Pins = append(c.Pins, pin)
}

// Pin returns the pin with the given number, or nil.
func (c *Component) Pin(number string) *Pin {
	for i := range c.Pins {
		if c.Pins[i].Number == number {
			return &c.Pins[i]
		}
	}
	return nil
}

// PinByName returns the pin with the given name, or nil.
func (c *Component) PinByName(name string) *Pin {
	for i := range c.Pins {
		if c.Pins[i].Name == name {
			return &c.Pins[i]
		}
	}
	return nil
}

// Type infers the component type from the reference designator.
func (c *Component) Type() ComponentType {
	return TypeFromRefDes(c.RefDes)
}

func (c *Component) IsIC() bool        { return c.Type() == TypeIC }
func (c *Component) IsCapacitor() bool { return c.Type() == TypeCapacitor }
func (c *Component) IsResistor() bool  { return c.Type() == TypeResistor }

// ComponentType is a component category inferred from the reference prefix.
type ComponentType int

const (
	TypeUnknown ComponentType = iota
	TypeResistor
	TypeCapacitor
	TypeInductor
	TypeIC
	TypeTransistor
	TypeDiode
	TypeConnector
	TypeCrystal
	TypeFuse
	TypeSwitch
	TypeRelay
	TypeTransformer
	TypeLED
	TypePowerSymbol
)

// String returns the canonical type name.
func (t ComponentType) String() string {
	switch t {
	case TypeResistor:
		return "resistor"
	case TypeCapacitor:
		return "capacitor"
	case TypeInductor:
		return "inductor"
	case TypeIC:
		return "ic"
	case TypeTransistor:
		return "transistor"
	case TypeDiode:
		return "diode"
	case TypeConnector:
		return "connector"
	case TypeCrystal:
		return "crystal"
	case TypeFuse:
		return "fuse"
	case TypeSwitch:
		return "switch"
	case TypeRelay:
		return "relay"
	case TypeTransformer:
		return "transformer"
	case TypeLED:
		return "led"
	case TypePowerSymbol:
		return "power_symbol"
	default:
		return "unknown"
	}
}

// TypeFromRefDes infers the component type from a reference designator
// prefix ("R1" -> resistor, "U3" -> ic, "SW2" -> switch).
func TypeFromRefDes(refDes string) ComponentType {
	upper := strings.ToUpper(refDes)
	var prefix strings.Builder
	for _, r := range upper {
		if r < 'A' || r > 'Z' {
			break
		}
		prefix.WriteRune(r)
	}

	switch prefix.String() {
	case "R":
		return TypeResistor
	case "C":
		return TypeCapacitor
	case "L":
		return TypeInductor
	case "U":
		return TypeIC
	case "Q":
		return TypeTransistor
	case "D":
		return TypeDiode
	case "J", "P", "CN":
		return TypeConnector
	case "Y", "X":
		return TypeCrystal
	case "F":
		return TypeFuse
	case "SW", "S":
		return TypeSwitch
	case "K":
		return TypeRelay
	case "T":
		return TypeTransformer
	case "LED":
		return TypeLED
	case "PWR":
		return TypePowerSymbol
	default:
		return TypeUnknown
	}
}
