package observability

import (
	"errors"
	"testing"
	"time"
)

func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name      string
		attr      Attribute
		wantKey   string
		wantValue interface{}
	}{
		{"String", String("session", "abc"), "session", "abc"},
		{"Int", Int("turns", 24), "turns", 24},
		{"Bool", Bool("merged", true), "merged", true},
		{"Duration", Duration("latency", 24*time.Millisecond), "latency", 24 * time.Millisecond},
		{"Error", Error(errors.New("quota exceeded")), "error", "quota exceeded"},
		{"Error nil", Error(nil), "error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", tt.attr.Value, tt.wantValue)
			}
		})
	}
}

func TestStatusCode_Values(t *testing.T) {
	if StatusUnset != 0 || StatusOK != 1 || StatusError != 2 {
		t.Errorf("unexpected status code values: %d %d %d", StatusUnset, StatusOK, StatusError)
	}
}
