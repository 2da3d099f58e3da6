package main

import "testing"

func TestParseHoldings(t *testing.T) {
	seeds, err := parseHoldings("btc=0.5, ETH=2")
	if err != nil {
		t.Fatalf("parseHoldings failed: %v", err)
	}
	if len(seeds) != 2 || seeds[0].symbol != "BTC" || seeds[0].amount.String() != "0.5" || seeds[1].symbol != "ETH" {
		t.Errorf("Unexpected seeds: %+v", seeds)
	}

	for _, bad := range []string{"BTC", "=1", "BTC=abc", "BTC=-1", "BTC=0"} {
		if _, err := parseHoldings(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}

	if seeds, err := parseHoldings(""); err != nil || seeds != nil {
		t.Errorf("Expected no seeds for empty input, got %v %v", seeds, err)
	}
}

func TestValidateEmail(t *testing.T) {
	if err := validateEmail("a.user@example.com"); err != nil {
		t.Errorf("Expected valid email, got %v", err)
	}
	for _, bad := range []string{"", "no-at", "x@y"} {
		if err := validateEmail(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
