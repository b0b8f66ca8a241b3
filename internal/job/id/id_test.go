package id

import (
	"strings"
	"testing"
)

func TestGenerate_Format(t *testing.T) {
	got := Generate()
	if !strings.HasPrefix(got, "vid-") {
		t.Errorf("expected prefix 'vid-', got %q", got)
	}
	if len(got) != len("vid-")+36 {
		t.Errorf("expected UUID suffix, got %q", got)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
