package utils

import (
	"testing"
)

func TestGenerateCommissionNoIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		no := GenerateCommissionNo()
		if len(no) < 3 || no[:2] != "CM" {
			t.Fatalf("unexpected commission number %q", no)
		}
		if seen[no] {
			t.Fatalf("duplicate commission number %q", no)
		}
		seen[no] = true
	}

	code := GenerateRandomCode(12)
	if len(code) != 12 {
		t.Fatalf("expected 12 characters, got %q", code)
	}
}
