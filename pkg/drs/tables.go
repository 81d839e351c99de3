package drs

import (
	"math"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-circuit/pkg/units"
)

// freqEntry is one pattern in a frequency or inductance table. Entries
// are matched in listed order so lookups are deterministic.
type freqEntry struct {
	pattern string
	value   float64
}

// Tables holds the calibration libraries the risk engine scores against:
// IC switching frequencies, capacitor self-resonant frequencies, and
// per-IC loop inductance limits.
type Tables struct {
	switchingFreqsMHz []freqEntry
	srfMHz            map[string]float64
	maxInductanceNH   []freqEntry
}

// DefaultSwitchingFreqMHz is assumed for ICs not in the library.
const DefaultSwitchingFreqMHz = 50.0

// DefaultSRFMHz is assumed for capacitors whose value cannot be parsed.
const DefaultSRFMHz = 30.0

// DefaultTables returns the built-in calibration libraries.
func DefaultTables() *Tables {
	return &Tables{
		switchingFreqsMHz: []freqEntry{
			{"STM32H7", 480.0},
			{"STM32F7", 216.0},
			{"STM32F411", 100.0},
			{"STM32F4", 168.0},
			{"ESP32-WROOM", 240.0},
			{"ESP32", 240.0},
			{"RP2040", 133.0},
			{"ATMEGA328P", 20.0},
			{"CPU", 1000.0},
			{"MPU", 1000.0},
			{"FPGA", 500.0},
			{"DSP", 300.0},
		},
		srfMHz: map[string]float64{
			"10pF":  2000.0,
			"22pF":  1500.0,
			"47pF":  1000.0,
			"100pF": 800.0,
			"220pF": 600.0,
			"470pF": 400.0,
			"1nF":   300.0,
			"2.2nF": 200.0,
			"4.7nF": 150.0,
			"10nF":  100.0,
			"22nF":  70.0,
			"47nF":  50.0,
			"100nF": 30.0,
			"220nF": 20.0,
			"470nF": 15.0,
			"1uF":   10.0,
			"2.2uF": 7.0,
			"4.7uF": 5.0,
			"10uF":  3.0,
			"22uF":  2.0,
			"47uF":  1.5,
			"100uF": 1.0,
		},
		maxInductanceNH: []freqEntry{
			{"FPGA", 2.5},
			{"STM32H7", 3.0},
			{"STM32F7", 3.5},
			{"STM32F411", 4.0},
			{"STM32F4", 4.0},
			{"STM32F1", 5.0},
			{"ESP32-WROOM", 3.0},
			{"ESP32", 3.0},
			{"RP2040", 4.0},
			{"ATMEGA328P", 10.0},
			{"CPU", 2.0},
			{"MPU", 2.0},
			{"DSP", 3.0},
		},
	}
}

// ICSwitchingFreqMHz looks up an IC's switching frequency by substring
// match against the part value. Unknown parts get a conservative default.
func (t *Tables) ICSwitchingFreqMHz(icValue string) float64 {
	upper := strings.ToUpper(icValue)
	for _, e := range t.switchingFreqsMHz {
		if strings.Contains(upper, e.pattern) {
			return e.value
		}
	}
	return DefaultSwitchingFreqMHz
}

// CapacitorSRFMHz looks up a capacitor's self-resonant frequency. Known
// values come from the library; anything else is interpolated from
// SRF = k/sqrt(C) with k calibrated for 0402 ceramics.
func (t *Tables) CapacitorSRFMHz(capValue string) float64 {
	pf, ok := units.ParseCapacitance(capValue)
	if !ok || pf <= 0 {
		return DefaultSRFMHz
	}
	if srf, ok := t.srfMHz[canonicalCapValue(pf)]; ok {
		return srf
	}
	return interpolateSRFMHz(pf)
}

// MaxInductanceNH returns the loop inductance limit for an IC, matched
// by substring against the part value.
func (t *Tables) MaxInductanceNH(icValue string) (float64, bool) {
	upper := strings.ToUpper(icValue)
	for _, e := range t.maxInductanceNH {
		if strings.Contains(upper, e.pattern) {
			return e.value, true
		}
	}
	return 0, false
}

// canonicalCapValue renders a picofarad quantity the way the SRF library
// keys its entries ("100nF", "2.2uF").
func canonicalCapValue(pf float64) string {
	switch {
	case pf < 1e3:
		return strconv.FormatFloat(pf, 'f', -1, 64) + "pF"
	case pf < 1e6:
		return strconv.FormatFloat(pf/1e3, 'f', -1, 64) + "nF"
	default:
		return strconv.FormatFloat(pf/1e6, 'f', -1, 64) + "uF"
	}
}

// interpolateSRFMHz estimates SRF for values outside the library using
// SRF = k/sqrt(C). k = 3000 approximates a 0402 ceramic's parasitic
// inductance.
func interpolateSRFMHz(pf float64) float64 {
	const k = 3000.0
	farads := pf * 1e-12
	return k / math.Sqrt(farads) / 1e6
}
