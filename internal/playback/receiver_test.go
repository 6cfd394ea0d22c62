package playback

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestPlayCompensatesForTransitDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	// The play message was stamped 3s ago on the server.
	r.Play(clock.Now().Add(-3 * time.Second))

	if got := r.Position(); got != 3*time.Second {
		t.Fatalf("expected position 3s, got %s", got)
	}
	if !r.Playing() {
		t.Fatal("expected playback started")
	}
}

func TestPlaySkipsCorrectionWithinTolerance(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	r.Play(clock.Now().Add(-50 * time.Millisecond))

	if got := r.Position(); got != 0 {
		t.Fatalf("expected sub-tolerance correction skipped, got %s", got)
	}
}

func TestPlayFallbackCorrectionAfterGrace(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	serverTS := clock.Now()
	r.Play(serverTS)

	// The media element reset to zero while metadata loaded, losing the
	// first second of position.
	clock.Advance(1 * time.Second)
	r.Seek(0)

	clock.Advance(MetadataGrace - 1*time.Second)
	waitForPosition(t, r, 2*time.Second)
}

func TestResumePreservesPauseDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	r.Play(clock.Now())
	clock.Advance(10 * time.Second)
	r.Pause()

	if got := r.Position(); got != 10*time.Second {
		t.Fatalf("expected paused at 10s, got %s", got)
	}

	// However long the pause lasted is irrelevant; only the resume
	// message's 2s transit delay moves the position forward.
	clock.Advance(45 * time.Second)
	r.Resume(clock.Now().Add(-2 * time.Second))

	if got := r.Position(); got != 12*time.Second {
		t.Fatalf("expected resume at 12s, got %s", got)
	}
	if !r.Playing() {
		t.Fatal("expected playback resumed")
	}
}

func TestPausePosition(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	r.Play(clock.Now())
	clock.Advance(7 * time.Second)
	r.Pause()
	clock.Advance(time.Minute)

	if got := r.Position(); got != 7*time.Second {
		t.Fatalf("expected position frozen at 7s, got %s", got)
	}
	if r.Playing() {
		t.Fatal("expected playback paused")
	}
}

func TestSeekAppliedVerbatim(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	r.Play(clock.Now())
	clock.Advance(5 * time.Second)
	r.Seek(90 * time.Second)
	clock.Advance(1 * time.Second)

	if got := r.Position(); got != 91*time.Second {
		t.Fatalf("expected position 91s, got %s", got)
	}
}

func TestVolumeAndEffectVerbatim(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReceiver(clock)

	r.SetVolume(0.4)
	r.SetEffect("reverb")

	if got := r.Volume(); got != 0.4 {
		t.Fatalf("expected volume 0.4, got %f", got)
	}
	if got := r.Effect(); got != "reverb" {
		t.Fatalf("expected effect reverb, got %q", got)
	}
}

// waitForPosition polls because the fallback correction fires on a timer
// goroutine behind the fake clock.
func waitForPosition(t *testing.T, r *Receiver, want time.Duration) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Position() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for position %s, at %s", want, r.Position())
}
