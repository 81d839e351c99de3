// Package capclass classifies capacitors by electrical function. The
// classifier runs an ordered rule cascade; the first rule that matches
// wins, so rule order encodes specificity: a crystal load cap must not
// fall through to the generic decoupling rule.
package capclass

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-circuit/pkg/logging"
	"github.com/dd0wney/cluso-circuit/pkg/schema"
	"github.com/dd0wney/cluso-circuit/pkg/units"
)

// Function is a capacitor's classified electrical role.
type Function string

const (
	// FunctionDecoupling is high-frequency bypass, 10 nF to 2.2 uF
	// between power and ground.
	FunctionDecoupling Function = "decoupling"
	// FunctionBulk is energy storage, above 4.7 uF between power and
	// ground.
	FunctionBulk Function = "bulk"
	// FunctionFiltering is signal filtering, in series or low-pass to
	// ground.
	FunctionFiltering Function = "filtering"
	// FunctionTiming is a crystal load cap, 1 to 47 pF.
	FunctionTiming Function = "timing"
	// FunctionSnubber sits on a switch node to ground.
	FunctionSnubber Function = "snubber"
	// FunctionUnknown means no rule matched.
	FunctionUnknown Function = "unknown"
)

// Classification is one capacitor's result.
type Classification struct {
	Ref        string   `json:"ref"`
	Function   Function `json:"function"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// FootprintSize buckets a footprint string into a size class.
type FootprintSize int

const (
	SizeUnknown FootprintSize = iota
	SizeSmall                 // 0402, 0201
	SizeMedium                // 0603
	SizeLarge                 // 0805, 1206, 1210
	SizeThroughHole
)

// SizeFromFootprint buckets a footprint name.
func SizeFromFootprint(footprint string) FootprintSize {
	upper := strings.ToUpper(footprint)
	switch {
	case strings.Contains(upper, "0402") || strings.Contains(upper, "0201"):
		return SizeSmall
	case strings.Contains(upper, "0603"):
		return SizeMedium
	case strings.Contains(upper, "0805") || strings.Contains(upper, "1206") || strings.Contains(upper, "1210"):
		return SizeLarge
	case strings.Contains(upper, "THT") || strings.Contains(upper, "TH") ||
		strings.Contains(upper, "RADIAL") || strings.Contains(upper, "AXIAL"):
		return SizeThroughHole
	default:
		return SizeUnknown
	}
}

// capContext carries everything a rule needs about one capacitor.
type capContext struct {
	cap       *schema.Component
	schematic *schema.Schematic
	nets      []*schema.Net
	valuePF   float64
	size      FootprintSize
}

type rule func(ctx *capContext) (Classification, bool)

// Classifier classifies every capacitor in a schematic.
type Classifier struct {
	log   logging.Logger
	rules []rule
}

// New creates a classifier. A nil logger disables logging.
func New(log logging.Logger) *Classifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Classifier{log: log}
	c.rules = []rule{
		c.checkTiming,
		c.checkSnubber,
		c.checkFiltering,
		c.checkBulk,
		c.checkDecoupling,
	}
	return c
}

// ClassifyAll classifies every capacitor, in schematic order. Capacitors
// with no connections or an unparseable value are skipped.
func (c *Classifier) ClassifyAll(s *schema.Schematic) []Classification {
	var out []Classification
	for _, comp := range s.Components {
		if !comp.IsCapacitor() {
			continue
		}
		if cls, ok := c.Classify(comp, s); ok {
			out = append(out, cls)
		}
	}
	c.log.Debug("capacitor classification complete", logging.Count(len(out)))
	return out
}

// Classify classifies a single capacitor. Returns false when the
// capacitor has no net connections or its value cannot be parsed.
func (c *Classifier) Classify(comp *schema.Component, s *schema.Schematic) (Classification, bool) {
	nets := s.NetsForComponent(comp.RefDes)
	if len(nets) == 0 {
		return Classification{}, false
	}
	valuePF, ok := units.ParseCapacitance(comp.Value)
	if !ok {
		return Classification{}, false
	}

	ctx := &capContext{
		cap:       comp,
		schematic: s,
		nets:      nets,
		valuePF:   valuePF,
		size:      SizeFromFootprint(comp.Footprint),
	}

	for _, r := range c.rules {
		if cls, matched := r(ctx); matched {
			return cls, true
		}
	}

	return Classification{
		Ref:        comp.RefDes,
		Function:   FunctionUnknown,
		Confidence: 0.0,
		Reasoning:  fmt.Sprintf("cannot determine function for %s (%s)", comp.RefDes, comp.Value),
	}, true
}

// checkTiming matches crystal load caps: 1 to 47 pF on a crystal net to
// ground, or a 10 to 33 pF cap to ground near a crystal.
func (c *Classifier) checkTiming(ctx *capContext) (Classification, bool) {
	if ctx.valuePF < 1.0 || ctx.valuePF > 47.0 {
		return Classification{}, false
	}

	hasXtalNet := false
	hasGnd := false
	for _, n := range ctx.nets {
		upper := strings.ToUpper(n.Name)
		if strings.Contains(upper, "XTAL") || strings.Contains(upper, "OSC") ||
			strings.Contains(upper, "CRYSTAL") || strings.Contains(upper, "CLK") {
			hasXtalNet = true
		}
		if schema.IsGroundName(n.Name) {
			hasGnd = true
		}
	}

	nearCrystal := ctx.nearType(schema.TypeCrystal, 30.0)

	if (hasXtalNet && hasGnd) || (nearCrystal && hasGnd && ctx.valuePF >= 10.0 && ctx.valuePF <= 33.0) {
		conf := 0.7
		if hasXtalNet {
			conf = 0.95
		}
		return Classification{
			Ref:        ctx.cap.RefDes,
			Function:   FunctionTiming,
			Confidence: conf,
			Reasoning:  fmt.Sprintf("timing cap: %gpF, near crystal or connected to XTAL net", ctx.valuePF),
		}, true
	}
	return Classification{}, false
}

// checkSnubber matches switch-node snubbers: on a SW net to ground, or
// to ground near a MOSFET or inductor.
func (c *Classifier) checkSnubber(ctx *capContext) (Classification, bool) {
	hasSwitchNode := false
	hasGnd := false
	for _, n := range ctx.nets {
		upper := strings.ToUpper(n.Name)
		if strings.Contains(upper, "SW") || strings.Contains(upper, "SWITCH") {
			hasSwitchNode = true
		}
		if schema.IsGroundName(n.Name) {
			hasGnd = true
		}
	}

	nearSwitch := ctx.nearType(schema.TypeTransistor, 20.0) || ctx.nearType(schema.TypeInductor, 20.0)

	if (hasSwitchNode && hasGnd) || (nearSwitch && hasGnd) {
		conf := 0.6
		if hasSwitchNode {
			conf = 0.9
		}
		return Classification{
			Ref:        ctx.cap.RefDes,
			Function:   FunctionSnubber,
			Confidence: conf,
			Reasoning:  "snubber: connected to switch node or near MOSFET/inductor",
		}, true
	}
	return Classification{}, false
}

// checkFiltering matches in-series caps between two signal nets, and
// low-pass caps from a signal net to ground.
func (c *Classifier) checkFiltering(ctx *capContext) (Classification, bool) {
	if len(ctx.nets) < 2 {
		return Classification{}, false
	}
	net1, net2 := ctx.nets[0], ctx.nets[1]

	sig1 := isSignalNet(net1)
	sig2 := isSignalNet(net2)

	if sig1 && sig2 {
		return Classification{
			Ref:        ctx.cap.RefDes,
			Function:   FunctionFiltering,
			Confidence: 0.8,
			Reasoning:  fmt.Sprintf("filtering (in-series): between signal nets %s and %s", net1.Name, net2.Name),
		}, true
	}

	if (sig1 && net2.IsGround()) || (sig2 && net1.IsGround()) {
		nearConnector := ctx.nearType(schema.TypeConnector, 20.0) || ctx.nearADC(20.0)
		conf := 0.65
		if nearConnector {
			conf = 0.85
		}
		signal := net1
		if sig2 {
			signal = net2
		}
		return Classification{
			Ref:        ctx.cap.RefDes,
			Function:   FunctionFiltering,
			Confidence: conf,
			Reasoning:  fmt.Sprintf("filtering (low-pass): %s to GND", signal.Name),
		}, true
	}
	return Classification{}, false
}

// checkBulk matches energy-storage caps above 4.7 uF between power and
// ground. Large footprints raise confidence.
func (c *Classifier) checkBulk(ctx *capContext) (Classification, bool) {
	if len(ctx.nets) < 2 {
		return Classification{}, false
	}
	valueUF := ctx.valuePF / 1e6
	if valueUF < 4.7 {
		return Classification{}, false
	}

	if !powerGroundPair(ctx.nets[0], ctx.nets[1]) {
		return Classification{}, false
	}

	conf := 0.8
	if ctx.size == SizeLarge || ctx.size == SizeThroughHole {
		conf = 0.95
	}
	return Classification{
		Ref:        ctx.cap.RefDes,
		Function:   FunctionBulk,
		Confidence: conf,
		Reasoning:  fmt.Sprintf("bulk cap: %.1fuF, power to ground", valueUF),
	}, true
}

// checkDecoupling matches high-frequency bypass caps, 10 nF to 2.2 uF
// between power and ground. Small footprints raise confidence.
func (c *Classifier) checkDecoupling(ctx *capContext) (Classification, bool) {
	if len(ctx.nets) < 2 {
		return Classification{}, false
	}
	valueNF := ctx.valuePF / 1e3
	valueUF := ctx.valuePF / 1e6
	if valueNF < 10.0 || valueUF > 2.2 {
		return Classification{}, false
	}

	if !powerGroundPair(ctx.nets[0], ctx.nets[1]) {
		return Classification{}, false
	}

	conf := 0.75
	if ctx.size == SizeSmall || ctx.size == SizeMedium {
		conf = 0.95
	}
	return Classification{
		Ref:        ctx.cap.RefDes,
		Function:   FunctionDecoupling,
		Confidence: conf,
		Reasoning:  fmt.Sprintf("decoupling cap: %.1fnF, power to ground", valueNF),
	}, true
}

// nearType reports whether any component of the given type sits within
// radius millimetres. Components without positions are ignored.
func (ctx *capContext) nearType(t schema.ComponentType, radiusMM float64) bool {
	if ctx.cap.Position == nil {
		return false
	}
	for _, comp := range ctx.schematic.Components {
		if comp.Type() != t || comp.Position == nil || comp.RefDes == ctx.cap.RefDes {
			continue
		}
		if ctx.cap.Position.DistanceTo(*comp.Position) < radiusMM {
			return true
		}
	}
	return false
}

// nearADC reports whether an ADC (an IC whose value mentions ADC) sits
// within radius millimetres.
func (ctx *capContext) nearADC(radiusMM float64) bool {
	if ctx.cap.Position == nil {
		return false
	}
	for _, comp := range ctx.schematic.Components {
		if !comp.IsIC() || comp.Position == nil {
			continue
		}
		if !strings.Contains(strings.ToUpper(comp.Value), "ADC") {
			continue
		}
		if ctx.cap.Position.DistanceTo(*comp.Position) < radiusMM {
			return true
		}
	}
	return false
}

func isSignalNet(n *schema.Net) bool {
	return !isPowerNet(n) && !n.IsGround()
}

func isPowerNet(n *schema.Net) bool {
	return n.IsPowerRail && !n.IsGround()
}

func powerGroundPair(a, b *schema.Net) bool {
	hasPower := isPowerNet(a) || isPowerNet(b)
	hasGnd := a.IsGround() || b.IsGround()
	return hasPower && hasGnd
}
