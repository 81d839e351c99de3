package schema

import "strings"

// SignalType classifies a net by its likely electrical role.
type SignalType string

const (
	SignalAnalog    SignalType = "analog"
	SignalDigital   SignalType = "digital"
	SignalHighSpeed SignalType = "high_speed"
	SignalPower     SignalType = "power"
	SignalGround    SignalType = "ground"
	SignalClock     SignalType = "clock"
	SignalReset     SignalType = "reset"
	SignalData      SignalType = "data"
	SignalControl   SignalType = "control"
	SignalUnknown   SignalType = "unknown"
)

// SignalTypeFromName infers the signal type from a net name.
func SignalTypeFromName(name string) SignalType {
	upper := strings.ToUpper(name)

	switch {
	case strings.Contains(upper, "GND") || strings.Contains(upper, "VSS") || upper == "0V":
		return SignalGround
	case strings.Contains(upper, "VCC") || strings.Contains(upper, "VDD") ||
		strings.Contains(upper, "3V3") || strings.Contains(upper, "5V") ||
		strings.Contains(upper, "12V") || strings.Contains(upper, "VBAT") ||
		strings.Contains(upper, "VIN") || strings.Contains(upper, "VOUT"):
		return SignalPower
	case strings.Contains(upper, "CLK") || strings.Contains(upper, "CLOCK") ||
		strings.Contains(upper, "OSC") || strings.Contains(upper, "XTAL"):
		return SignalClock
	case strings.Contains(upper, "RST") || strings.Contains(upper, "RESET"):
		return SignalReset
	case strings.Contains(upper, "SDA") || strings.Contains(upper, "SCL") ||
		strings.Contains(upper, "MOSI") || strings.Contains(upper, "MISO") ||
		strings.Contains(upper, "TX") || strings.Contains(upper, "RX") ||
		strings.Contains(upper, "D+") || strings.Contains(upper, "D-"):
		return SignalData
	case strings.Contains(upper, "CS") || strings.Contains(upper, "EN") ||
		strings.Contains(upper, "OE") || strings.Contains(upper, "WE") ||
		strings.Contains(upper, "CE"):
		return SignalControl
	default:
		return SignalUnknown
	}
}

// IsGroundName reports whether a net name denotes a ground net.
func IsGroundName(name string) bool {
	upper := strings.ToUpper(name)
	return upper == "GND" || upper == "GROUND" || strings.Contains(upper, "VSS") ||
		upper == "0V" || upper == "COM" || upper == "COMMON" ||
		upper == "AGND" || upper == "DGND"
}

// Connection is a single attachment point on a net.
type Connection struct {
	RefDes string `json:"ref_des"`
	Pin    string `json:"pin"`
}

// Net is an electrically common set of pins.
type Net struct {
	Name         string       `json:"name"`
	VoltageLevel *float64     `json:"voltage_level,omitempty"`
	IsPowerRail  bool         `json:"is_power_rail,omitempty"`
	Signal       SignalType   `json:"signal_type,omitempty"`
	Connections  []Connection `json:"connections"`
}

// NewNet creates a net, inferring signal type and power-rail status from
// the name.
func NewNet(name string) *Net {
	sig := SignalTypeFromName(name)
	return &Net{
		Name:        name,
		Signal:      sig,
		IsPowerRail: sig == SignalPower || sig == SignalGround,
	}
}

// WithVoltage sets an asserted voltage level and returns the net.
func (n *Net) WithVoltage(volts float64) *Net {
	n.VoltageLevel = &volts
	return n
}

// AddConnection appends a component pin attachment.
func (n *Net) AddConnection(refDes, pin string) {
	n.Connections = append(n.Connections, Connection{RefDes: refDes, Pin: pin})
}

// HasComponent reports whether the named component attaches to this net.
func (n *Net) HasComponent(refDes string) bool {
	for _, conn := range n.Connections {
		if conn.RefDes == refDes {
			return true
		}
	}
	return false
}

// IsGround reports whether this net is a ground net.
func (n *Net) IsGround() bool {
	return n.Signal == SignalGround || IsGroundName(n.Name)
}

// Schematic is the complete CAD-agnostic circuit snapshot consumed by the
// analysis engine. Pin-to-net resolution has already happened upstream.
type Schematic struct {
	Name       string       `json:"name"`
	Components []*Component `json:"components"`
	Nets       []*Net       `json:"nets"`
}

// NewSchematic creates an empty schematic.
func NewSchematic(name string) *Schematic {
	return &Schematic{Name: name}
}

// AddComponent appends a component.
func (s *Schematic) AddComponent(c *Component) {
	s.Components = append(s.Components, c)
}

// AddNet appends a net.
func (s *Schematic) AddNet(n *Net) {
	s.Nets = append(s.Nets, n)
}

// Component returns the component with the given reference, or nil.
func (s *Schematic) Component(refDes string) *Component {
	for _, c := range s.Components {
		if c.RefDes == refDes {
			return c
		}
	}
	return nil
}

// Net returns the net with the given name, or nil.
func (s *Schematic) Net(name string) *Net {
	for _, n := range s.Nets {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// ICs returns all IC components in insertion order.
func (s *Schematic) ICs() []*Component {
	var ics []*Component
	for _, c := range s.Components {
		if c.IsIC() {
			ics = append(ics, c)
		}
	}
	return ics
}

// PowerNets returns all power-rail nets in insertion order.
func (s *Schematic) PowerNets() []*Net {
	var nets []*Net
	for _, n := range s.Nets {
		if n.IsPowerRail {
			nets = append(nets, n)
		}
	}
	return nets
}

// NetsForComponent returns all nets the named component attaches to.
func (s *Schematic) NetsForComponent(refDes string) []*Net {
	var nets []*Net
	for _, n := range s.Nets {
		if n.HasComponent(refDes) {
			nets = append(nets, n)
		}
	}
	return nets
}
