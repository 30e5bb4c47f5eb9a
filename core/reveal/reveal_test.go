package reveal

import (
	"context"
	"testing"
	"time"
)

func collect(rv *Reveal) []string {
	var frames []string
	Play(rv, func(f string) { frames = append(frames, f) })
	return frames
}

func TestStart_RuneAwarePrefixes(t *testing.T) {
	text := "héy 👋"
	frames := collect(New(time.Millisecond).Start(context.Background(), text))

	want := []string{"h", "hé", "héy", "héy ", "héy 👋"}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames %q, want %q", len(frames), frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, frames[i], want[i])
		}
	}
}

func TestStart_EmptyTextClosesImmediately(t *testing.T) {
	rv := New(time.Millisecond).Start(context.Background(), "")
	select {
	case <-rv.Done():
	case <-time.After(time.Second):
		t.Fatal("expected empty reveal to finish")
	}
	if frames := collect(rv); len(frames) != 0 {
		t.Errorf("expected no frames, got %q", frames)
	}
}

func TestCancel_StopsAnimation(t *testing.T) {
	rv := New(time.Hour).Start(context.Background(), "never shown")
	rv.Cancel()
	rv.Cancel()

	select {
	case <-rv.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Cancel to stop the animation")
	}
	if frames := collect(rv); len(frames) != 0 {
		t.Errorf("expected no frames after cancel, got %q", frames)
	}
}

func TestContextCancellationStopsAnimation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rv := New(time.Hour).Start(ctx, "text")
	cancel()

	select {
	case <-rv.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context cancellation to stop the animation")
	}
}

func TestPauseResume(t *testing.T) {
	rv := New(time.Millisecond).Start(context.Background(), "abcdef")
	defer rv.Cancel()

	if first := <-rv.Frames(); first != "a" {
		t.Fatalf("first frame = %q", first)
	}
	rv.Pause()
	if !rv.Paused() {
		t.Fatal("expected Paused() after Pause")
	}

	// A frame already on its way may still arrive; nothing after it.
	received := 1
	select {
	case <-rv.Frames():
		received++
	case <-time.After(20 * time.Millisecond):
	}
	select {
	case f := <-rv.Frames():
		t.Fatalf("received frame %q while paused", f)
	case <-time.After(30 * time.Millisecond):
	}

	rv.Resume()
	rv.Resume()
	if rv.Paused() {
		t.Fatal("expected Paused() to be false after Resume")
	}

	var last string
	for f := range rv.Frames() {
		last = f
		received++
	}
	if last != "abcdef" || received != 6 {
		t.Errorf("last = %q after %d frames", last, received)
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	if New(0).Interval != DefaultInterval {
		t.Errorf("Interval = %v", New(0).Interval)
	}
}
