package voltage

import (
	"regexp"
	"strconv"
	"strings"
)

// fixedRegulators lists classic three-terminal regulator part numbers and
// their fixed output voltage.
var fixedRegulators = []struct {
	part  string
	volts float64
}{
	{"7805", 5.0},
	{"7809", 9.0},
	{"7812", 12.0},
	{"7803", 3.3},
	{"7833", 3.3},
}

// ldoFamilies are adjustable/fixed LDO families whose part number encodes
// the output voltage in a suffix ("AMS1117-3.3", "XC6206P332", "HT7333").
var ldoFamilies = []string{
	"AMS1117", "TLV1117", "LM1117", "NCP1117", "LD1117",
	"AP2112", "MCP1700", "RT9080", "SPX3819", "ME6211",
	"HT7333", "HT7350", "XC6206", "AP7361",
}

var (
	decimalRe    = regexp.MustCompile(`([0-9]+\.[0-9]+)`)
	digitVDigitRe = regexp.MustCompile(`([0-9])V([0-9])`)
)

// RegulatorOutputVoltage recognises a voltage regulator by part number and
// returns its output voltage. Recognition is table-driven: classic 78xx
// parts, common LDO families with encoded voltage suffixes, and a generic
// digit-V-digit window ("xx-3V3") as fallback.
func RegulatorOutputVoltage(mpn string) (float64, bool) {
	upper := strings.ToUpper(strings.TrimSpace(mpn))
	if upper == "" {
		return 0, false
	}

	for _, fr := range fixedRegulators {
		if strings.Contains(upper, fr.part) {
			return fr.volts, true
		}
	}

	for _, family := range ldoFamilies {
		if !strings.Contains(upper, family) {
			continue
		}
		rest := upper[strings.Index(upper, family)+len(family):]
		if v, ok := voltageFromSuffix(rest); ok {
			return v, true
		}
		if v, ok := familyDefault(family); ok {
			return v, true
		}
		return 0, false
	}

	if m := digitVDigitRe.FindStringSubmatch(upper); m != nil {
		return parseDigitVDigit(m[1], m[2])
	}

	return 0, false
}

// voltageFromSuffix extracts an output voltage from the text after a
// family prefix: "-3.3" decimal form, "3V3" window form, or a packed
// two-digit code ("332" on XC6206P332 means 3.3 V).
func voltageFromSuffix(rest string) (float64, bool) {
	if m := decimalRe.FindStringSubmatch(rest); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 && v <= 50 {
			return v, true
		}
	}
	if m := digitVDigitRe.FindStringSubmatch(rest); m != nil {
		return parseDigitVDigit(m[1], m[2])
	}
	// packed digits: first two digits read as X.Y volts
	digits := ""
	for _, r := range rest {
		if r >= '0' && r <= '9' {
			digits += string(r)
			if len(digits) == 2 {
				break
			}
		}
	}
	if len(digits) == 2 {
		whole := float64(digits[0] - '0')
		frac := float64(digits[1]-'0') / 10
		v := whole + frac
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// familyDefault covers fixed-output families whose part number carries no
// further voltage digits beyond the family name itself.
func familyDefault(family string) (float64, bool) {
	switch family {
	case "HT7333":
		return 3.3, true
	case "HT7350":
		return 5.0, true
	default:
		return 0, false
	}
}

func parseDigitVDigit(whole, frac string) (float64, bool) {
	w, err1 := strconv.ParseFloat(whole, 64)
	f, err2 := strconv.ParseFloat("0."+frac, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	v := w + f
	if v <= 0 || v > 50 {
		return 0, false
	}
	return v, true
}

// IsRegulatorOutputNet reports whether a net name looks like a regulator
// output rail. Used to pick which of a regulator's nets receives the seed
// when pin roles are not annotated.
func IsRegulatorOutputNet(name string) bool {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "OUT") {
		return true
	}
	for _, marker := range []string{"VCC", "VDD", "3V", "5V", "12V", "1V8", "2V5"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
