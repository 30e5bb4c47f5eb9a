// Package reveal produces the character-by-character typing animation used
// to show replies. It is purely presentational and never touches history.
package reveal

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultInterval is the delay between two revealed characters.
const DefaultInterval = 24 * time.Millisecond

// Revealer starts reveal animations at a fixed pace.
type Revealer struct {
	Interval time.Duration
}

// New creates a Revealer; a non-positive interval means DefaultInterval.
func New(interval time.Duration) *Revealer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Revealer{Interval: interval}
}

// Reveal is one running animation.
type Reveal struct {
	frames chan string
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	resumed chan struct{} // nil while running, closed on Resume
}

// Start reveals text one rune at a time. Each frame is a growing prefix of
// text and the last frame is text itself. The frames channel closes when the
// animation completes, ctx ends, or Cancel is called.
func (r *Revealer) Start(ctx context.Context, text string) *Reveal {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	rv := &Reveal{
		frames: make(chan string),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go rv.run(ctx, text, interval)
	return rv
}

func (rv *Reveal) run(ctx context.Context, text string, interval time.Duration) {
	defer close(rv.done)
	defer close(rv.frames)
	defer rv.cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for end := 0; end < len(text); {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !rv.waitResumed(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case rv.frames <- text[:end]:
		}
	}
}

func (rv *Reveal) waitResumed(ctx context.Context) bool {
	rv.mu.Lock()
	resumed := rv.resumed
	rv.mu.Unlock()
	if resumed == nil {
		return true
	}
	select {
	case <-resumed:
		return true
	case <-ctx.Done():
		return false
	}
}

// Frames returns the channel of successive prefixes.
func (rv *Reveal) Frames() <-chan string {
	return rv.frames
}

// Done is closed once the animation has stopped for any reason.
func (rv *Reveal) Done() <-chan struct{} {
	return rv.done
}

// Pause holds the animation before its next frame.
func (rv *Reveal) Pause() {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	if rv.resumed == nil {
		rv.resumed = make(chan struct{})
	}
}

// Resume continues a paused animation. It is a no-op when not paused.
func (rv *Reveal) Resume() {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	if rv.resumed != nil {
		close(rv.resumed)
		rv.resumed = nil
	}
}

// Paused reports whether the animation is currently held.
func (rv *Reveal) Paused() bool {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	return rv.resumed != nil
}

// Cancel stops the animation. Safe to call more than once.
func (rv *Reveal) Cancel() {
	rv.cancel()
}

// Play drains the animation, calling render for each frame, and returns
// when it has stopped.
func Play(rv *Reveal, render func(frame string)) {
	for frame := range rv.Frames() {
		render(frame)
	}
	<-rv.Done()
}
