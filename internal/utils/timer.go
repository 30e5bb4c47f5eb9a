package utils

import "time"

// Stopwatch measures wall-clock time from its creation or last Reset.
type Stopwatch struct {
	start time.Time
}

// NewStopwatch returns a running stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Reset restarts the measurement from now.
func (s *Stopwatch) Reset() {
	s.start = time.Now()
}

// Elapsed returns the time since the stopwatch started. It can be read any
// number of times.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Seconds is Elapsed expressed in fractional seconds, the unit histograms use.
func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}
