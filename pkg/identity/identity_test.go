package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID(t *testing.T) {
	a, b := UUID{}.NewID(nil), UUID{}.NewID(nil)
	if a == b {
		t.Error("UUIDs should differ")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("uuid.Parse(%q): %v", a, err)
	}
}

func TestSequential(t *testing.T) {
	s := &Sequential{Prefix: "u"}
	for _, want := range []string{"u1", "u2", "u3"} {
		if got := s.NewID(nil); got != want {
			t.Errorf("NewID = %q, want %q", got, want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"", true},
		{"none", true},
		{"uuid", true},
		{"sequential", true},
		{"random", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Parse(tt.name)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && s == nil {
				t.Error("Parse returned nil strategy")
			}
		})
	}
}
