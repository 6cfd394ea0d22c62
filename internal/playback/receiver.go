// Package playback models the listener side of the synchronized playback
// protocol. A Receiver tracks where a listener's audio position should be
// given the control messages broadcast by the aux, compensating for one-way
// network delay using the server timestamp embedded in play and resume
// messages. It holds no audio; callers apply Position to their player.
package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tolerance is the smallest correction worth applying. Corrections below it
// are skipped so minor clock disagreement does not cause audible jumps.
const Tolerance = 100 * time.Millisecond

// MetadataGrace is how long after a play message the fallback correction
// fires. It covers players whose media metadata arrives after the initial
// correction, leaving the first correction a no-op.
const MetadataGrace = 2 * time.Second

type Receiver struct {
	clock clockwork.Clock

	mu       sync.Mutex
	position time.Duration
	syncedAt time.Time
	playing  bool
	volume   float64
	effect   string
	grace    clockwork.Timer
}

func NewReceiver(clock clockwork.Clock) *Receiver {
	return &Receiver{clock: clock, volume: 1.0}
}

// Play starts playback immediately at zero, then corrects the position to the
// elapsed time since the server stamped the message. A second correction runs
// after MetadataGrace in case the first one landed before the media was ready.
func (r *Receiver) Play(serverTimestamp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = 0
	r.syncedAt = r.clock.Now()
	r.playing = true
	r.correctTo(serverTimestamp)
	if r.grace != nil {
		r.grace.Stop()
	}
	r.grace = r.clock.AfterFunc(MetadataGrace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.playing {
			r.correctTo(serverTimestamp)
		}
	})
}

// correctTo moves the position to now-serverTimestamp, clamped at zero,
// unless the correction is within Tolerance. Callers hold r.mu.
func (r *Receiver) correctTo(serverTimestamp time.Time) {
	now := r.clock.Now()
	target := now.Sub(serverTimestamp)
	if target < 0 {
		target = 0
	}
	current := r.positionLocked(now)
	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	if diff <= Tolerance {
		return
	}
	r.position = target
	r.syncedAt = now
}

func (r *Receiver) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	r.position = r.positionLocked(now)
	r.syncedAt = now
	r.playing = false
}

// Resume restarts playback from the paused position plus the message's
// transit delay. The delay is a relative offset, not an absolute seek, so
// however long the pause lasted is preserved exactly.
func (r *Receiver) Resume(serverTimestamp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	if delay := now.Sub(serverTimestamp); delay > 0 {
		r.position += delay
	}
	r.syncedAt = now
	r.playing = true
}

// Seek applies the aux's position verbatim. No latency compensation: a seek
// lands everyone at the same spot, just not at the same instant.
func (r *Receiver) Seek(position time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
	r.syncedAt = r.clock.Now()
}

func (r *Receiver) SetVolume(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = level
}

func (r *Receiver) SetEffect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effect = name
}

// Position reports where the listener's audio should currently be.
func (r *Receiver) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.positionLocked(r.clock.Now())
}

func (r *Receiver) positionLocked(now time.Time) time.Duration {
	if !r.playing {
		return r.position
	}
	return r.position + now.Sub(r.syncedAt)
}

func (r *Receiver) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *Receiver) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *Receiver) Effect() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.effect
}
