// Package units parses component value strings and voltage-bearing net
// names. Schematic values arrive in loose engineering notation ("4k7",
// "100nF", "0.1uF") so parsing is best-effort: every function reports
// whether it recognised the input rather than returning an error.
package units

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	resistSuffixRe = regexp.MustCompile(`^([0-9.]+)\s*(K|M|R)?$`)
	resistInfixRe  = regexp.MustCompile(`^([0-9]+)(K|M|R)([0-9]+)$`)
	voltWindowRe   = regexp.MustCompile(`([0-9]+)V([0-9]+)`)
	voltPrefixRe   = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)V`)
)

// ParseResistance converts a resistor value string to ohms. Accepts plain
// numerics ("4700"), suffix notation ("10k", "1M", "100R") and infix
// notation ("4k7" = 4.7k, "1M2" = 1.2M).
func ParseResistance(value string) (float64, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.TrimSuffix(v, "OHM")
	v = strings.TrimSuffix(v, "Ω")
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}

	if m := resistInfixRe.FindStringSubmatch(v); m != nil {
		whole, err1 := strconv.ParseFloat(m[1], 64)
		frac, err2 := strconv.ParseFloat("0."+m[3], 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return (whole + frac) * resistMultiplier(m[2]), true
	}

	if m := resistSuffixRe.FindStringSubmatch(v); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return n * resistMultiplier(m[2]), true
	}

	return 0, false
}

func resistMultiplier(suffix string) float64 {
	switch suffix {
	case "K":
		return 1e3
	case "M":
		return 1e6
	default:
		return 1
	}
}

// ParseCapacitance converts a capacitor value string to picofarads.
// Accepts "100nF", "0.1uF", "10uF", "22pF", "1F" and case variants;
// a bare numeric is treated as picofarads.
func ParseCapacitance(value string) (float64, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "µ", "u")
	if v == "" {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(v, "pf"):
		v, mult = strings.TrimSuffix(v, "pf"), 1
	case strings.HasSuffix(v, "nf"):
		v, mult = strings.TrimSuffix(v, "nf"), 1e3
	case strings.HasSuffix(v, "uf"):
		v, mult = strings.TrimSuffix(v, "uf"), 1e6
	case strings.HasSuffix(v, "mf"):
		v, mult = strings.TrimSuffix(v, "mf"), 1e9
	case strings.HasSuffix(v, "f"):
		v, mult = strings.TrimSuffix(v, "f"), 1e12
	case strings.HasSuffix(v, "p"):
		v, mult = strings.TrimSuffix(v, "p"), 1
	case strings.HasSuffix(v, "n"):
		v, mult = strings.TrimSuffix(v, "n"), 1e3
	case strings.HasSuffix(v, "u"):
		v, mult = strings.TrimSuffix(v, "u"), 1e6
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n * mult, true
}

// PicofaradsToMicrofarads converts a picofarad value to microfarads.
func PicofaradsToMicrofarads(pf float64) float64 {
	return pf / 1e6
}

// ParseVoltageNet extracts a voltage level from a net name. Ground names
// yield 0 V. Recognises digit-V-digit windows ("3V3" = 3.3, "+1V8" = 1.8)
// and digits-before-V forms ("5V", "VCC_12V" = 12) when the result lands
// in a plausible (0, 100] V range.
func ParseVoltageNet(name string) (float64, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return 0, false
	}
	if isGroundName(upper) {
		return 0, true
	}

	if m := voltWindowRe.FindStringSubmatch(upper); m != nil {
		whole, err1 := strconv.ParseFloat(m[1], 64)
		frac, err2 := strconv.ParseFloat("0."+m[2], 64)
		if err1 == nil && err2 == nil {
			v := whole + frac
			if v > 0 && v <= 100 {
				return v, true
			}
		}
	}

	if m := voltPrefixRe.FindStringSubmatch(upper); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 && v <= 100 {
			return v, true
		}
	}

	return 0, false
}

func isGroundName(upper string) bool {
	return upper == "GND" || upper == "GROUND" || upper == "0V" ||
		upper == "AGND" || upper == "DGND" || strings.Contains(upper, "VSS")
}
