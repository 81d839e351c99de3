package validation

import (
	"strings"
	"testing"
)

func validSnapshot() *SnapshotRequest {
	return &SnapshotRequest{
		Name: "demo",
		Components: []ComponentRequest{
			{RefDes: "U1", Value: "STM32F103"},
			{RefDes: "C1", Value: "100nF", Footprint: "C_0402"},
		},
		Nets: []NetRequest{
			{Name: "+3V3", Connections: []ConnectionRequest{
				{Ref: "U1", Pin: "1"},
				{Ref: "C1", Pin: "1"},
			}},
		},
	}
}

func TestValidateSnapshotOK(t *testing.T) {
	if err := ValidateSnapshot(validSnapshot()); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
}

func TestValidateSnapshotNil(t *testing.T) {
	if err := ValidateSnapshot(nil); err == nil {
		t.Fatal("nil snapshot accepted")
	}
}

func TestValidateSnapshotNoComponents(t *testing.T) {
	req := validSnapshot()
	req.Components = nil
	if err := ValidateSnapshot(req); err == nil {
		t.Fatal("empty component list accepted")
	}
}

func TestValidateSnapshotDuplicateRef(t *testing.T) {
	req := validSnapshot()
	req.Components = append(req.Components, ComponentRequest{RefDes: "U1"})
	err := ValidateSnapshot(req)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("duplicate reference not caught: %v", err)
	}
}

func TestValidateSnapshotUndeclaredConnection(t *testing.T) {
	req := validSnapshot()
	req.Nets[0].Connections = append(req.Nets[0].Connections, ConnectionRequest{Ref: "R9", Pin: "1"})
	err := ValidateSnapshot(req)
	if err == nil || !strings.Contains(err.Error(), "undeclared") {
		t.Fatalf("undeclared connection not caught: %v", err)
	}
}

func TestValidateRefDes(t *testing.T) {
	good := []string{"U1", "C42", "R100", "#PWR01", "LED3"}
	for _, ref := range good {
		if err := ValidateRefDes(ref); err != nil {
			t.Errorf("ValidateRefDes(%q) = %v, want nil", ref, err)
		}
	}

	bad := []string{"", "1U", "U", "U1-A", "U 1", strings.Repeat("U", 40) + "1"}
	for _, ref := range bad {
		if err := ValidateRefDes(ref); err == nil {
			t.Errorf("ValidateRefDes(%q) accepted", ref)
		}
	}
}
