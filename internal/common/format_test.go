package common

import "testing"

func TestBoxPrefixes(t *testing.T) {
	if BoxPrefix(true) != "└  " || BoxPrefix(false) != "│  " {
		t.Errorf("Unexpected list prefixes %q %q", BoxPrefix(true), BoxPrefix(false))
	}
	if BoxDetailPrefix(true) != "   " || BoxDetailPrefix(false) != "│  " {
		t.Errorf("Unexpected detail prefixes")
	}
	if got := rule("=", 3); got != "===" {
		t.Errorf("rule = %q", got)
	}
}
