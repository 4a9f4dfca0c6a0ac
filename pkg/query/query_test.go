package query

import "testing"

func TestCanonicalizeDevMode(t *testing.T) {
	c := Canonicalize("बिहार स्वास्थ्य")
	if c.Mode != ModeDev {
		t.Fatalf("Mode = %q, want dev", c.Mode)
	}
}

func TestCanonicalizeRomanMode(t *testing.T) {
	c := Canonicalize("asha workers training bihar")
	if c.Mode != ModeRoman {
		t.Fatalf("Mode = %q, want roman", c.Mode)
	}
	if c.Q != "asha workers training bihar" {
		t.Errorf("Q = %q", c.Q)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"बिहार   स्वास्थ्य", "Asha Workers, Bihar!!"} {
		once := Canonicalize(raw)
		twice := Canonicalize(once.Q)
		if once.Q != twice.Q {
			t.Errorf("canonicalize not idempotent for %q: %q != %q", raw, once.Q, twice.Q)
		}
	}
}

func TestCanonicalizeEmpty(t *testing.T) {
	c := Canonicalize("")
	if c.Q != "" {
		t.Errorf("Q = %q, want empty", c.Q)
	}
}
