package types

import "testing"

func TestIsValidKind(t *testing.T) {
	for _, k := range AllKinds {
		if !IsValidKind(k) {
			t.Errorf("IsValidKind(%q) = false, want true", k)
		}
	}

	for _, k := range []Kind{"", "note", "FACT", "facts", "memory"} {
		if IsValidKind(k) {
			t.Errorf("IsValidKind(%q) = true, want false", k)
		}
	}
}
