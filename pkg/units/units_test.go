package units

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9*math.Max(1, math.Abs(b))
}

func TestParseResistance(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10k", 10000, true},
		{"10K", 10000, true},
		{"4k7", 4700, true},
		{"1M", 1e6, true},
		{"1M2", 1.2e6, true},
		{"100R", 100, true},
		{"4R7", 4.7, true},
		{"4700", 4700, true},
		{"0.5", 0.5, true},
		{"220 ohm", 220, true},
		{"", 0, false},
		{"abc", 0, false},
		{"100nF", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseResistance(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseResistance(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !approx(got, tc.want) {
			t.Errorf("ParseResistance(%q) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestParseCapacitance(t *testing.T) {
	cases := []struct {
		in     string
		wantPF float64
		ok     bool
	}{
		{"22pF", 22, true},
		{"100nF", 100e3, true},
		{"100n", 100e3, true},
		{"0.1uF", 100e3, true},
		{"0.1µF", 100e3, true},
		{"10uF", 10e6, true},
		{"4.7uF", 4.7e6, true},
		{"1F", 1e12, true},
		{"470", 470, true},
		{"", 0, false},
		{"10k", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseCapacitance(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseCapacitance(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !approx(got, tc.wantPF) {
			t.Errorf("ParseCapacitance(%q) = %g pF, want %g pF", tc.in, got, tc.wantPF)
		}
	}
}

func TestParseVoltageNet(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"+3V3", 3.3, true},
		{"3V3", 3.3, true},
		{"+1V8", 1.8, true},
		{"5V", 5, true},
		{"VCC_12V", 12, true},
		{"GND", 0, true},
		{"AGND", 0, true},
		{"0V", 0, true},
		{"SDA", 0, false},
		{"NET42", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseVoltageNet(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseVoltageNet(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !approx(got, tc.want) {
			t.Errorf("ParseVoltageNet(%q) = %g, want %g", tc.in, got, tc.want)
		}
	}
}
