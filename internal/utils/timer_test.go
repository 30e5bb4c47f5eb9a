package utils

import (
	"strings"
	"testing"
	"time"
)

func TestStopwatch_Elapsed(t *testing.T) {
	sw := NewStopwatch()
	time.Sleep(2 * time.Millisecond)

	first := sw.Elapsed()
	if first <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", first)
	}
	if second := sw.Elapsed(); second < first {
		t.Errorf("Elapsed went backwards: %v then %v", first, second)
	}
	if sw.Seconds() <= 0 {
		t.Errorf("expected positive seconds")
	}
}

func TestStopwatch_Reset(t *testing.T) {
	sw := NewStopwatch()
	time.Sleep(20 * time.Millisecond)
	sw.Reset()

	if got := sw.Elapsed(); got >= 20*time.Millisecond {
		t.Errorf("expected Reset to restart the measurement, got %v", got)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string truncated", "hello world", 5, "hello... (truncated, total: 11 chars)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString() = %q, want %q", got, tt.want)
			}
		})
	}

	long := strings.Repeat("a", DefaultMaxStringLength+1)
	if got := TruncateString(long, 0); !strings.HasPrefix(got, strings.Repeat("a", DefaultMaxStringLength)+"...") {
		t.Errorf("expected default length to apply for maxLen <= 0")
	}
}

func TestPtr(t *testing.T) {
	p := Ptr(float32(0.5))
	if p == nil || *p != 0.5 {
		t.Fatalf("Ptr() = %v", p)
	}
}
