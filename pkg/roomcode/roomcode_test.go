package roomcode

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for i := 0; i < 100; i++ {
		if code := Generate(); len(code) != Length {
			t.Fatalf("expected %d-character code, got %q", Length, code)
		}
	}
}

func TestGenerateUsesSafeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("code %q contains %q, not in alphabet", code, r)
			}
		}
	}
}

func TestAlphabetExcludesConfusables(t *testing.T) {
	for _, c := range "01IO" {
		if strings.ContainsRune(Alphabet, c) {
			t.Fatalf("alphabet must not contain confusable character %q", c)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[Generate()] = struct{}{}
	}
	// 32^6 possible codes; 100 draws colliding down to a handful would
	// mean the generator is broken, not unlucky.
	if len(seen) < 90 {
		t.Fatalf("expected near-unique codes, got %d distinct out of 100", len(seen))
	}
}
