package main

import "testing"

func TestParseDecision(t *testing.T) {
	d, err := parseDecision("withdrawal", "u1", "w1", true, "")
	if err != nil || d == nil || !d.approve || d.entryId != "w1" {
		t.Fatalf("Unexpected decision %+v, err %v", d, err)
	}

	d, err = parseDecision("deposit", "u1", "d1", false, "no funds")
	if err != nil || d.approve || d.reason != "no funds" {
		t.Fatalf("Unexpected decision %+v, err %v", d, err)
	}

	if d, err := parseDecision("withdrawal", "", "", false, ""); d != nil || err != nil {
		t.Errorf("Expected list mode without id, got %+v %v", d, err)
	}

	bad := []struct {
		name                string
		kind, user, id, why string
		approve             bool
	}{
		{"unknown kind", "trade", "u", "x", "", true},
		{"missing user", "deposit", "", "x", "", true},
		{"both", "deposit", "u", "x", "r", true},
		{"neither", "deposit", "u", "x", "", false},
	}
	for _, tt := range bad {
		if _, err := parseDecision(tt.kind, tt.user, tt.id, tt.approve, tt.why); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
