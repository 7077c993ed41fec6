package battleship

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultTurnDuration time.Duration = time.Second * 30

// TurnTimer is a single-shot countdown owned by one Match. It is not
// safe for concurrent use on its own; the owning match calls it with
// its mutex held.
//
// Every Start bumps the generation. The expiry callback receives the
// generation it was armed with, so the owner can drop a callback that
// lost the race against a Cancel or a newer Start.
type TurnTimer struct {
	clock      clockwork.Clock
	timer      clockwork.Timer
	deadline   time.Time
	generation uint64
	onExpire   func(generation uint64)
}

func NewTurnTimer(clock clockwork.Clock, onExpire func(generation uint64)) *TurnTimer {
	return &TurnTimer{
		clock:    clock,
		onExpire: onExpire,
	}
}

// Start arms a countdown of d, implicitly cancelling any prior one.
func (t *TurnTimer) Start(d time.Duration) {
	t.Cancel()

	gen := t.generation
	t.deadline = t.clock.Now().Add(d)
	t.timer = t.clock.AfterFunc(d, func() { t.onExpire(gen) })
}

// Cancel stops the active countdown, if any. A callback already in
// flight becomes stale.
func (t *TurnTimer) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.generation++
}

func (t *TurnTimer) Active() bool {
	return t.timer != nil
}

func (t *TurnTimer) Remaining() time.Duration {
	if t.timer == nil {
		return 0
	}
	remaining := t.deadline.Sub(t.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expire claims a fired countdown. It reports false for stale
// generations; on true the timer is no longer active.
func (t *TurnTimer) Expire(generation uint64) bool {
	if t.timer == nil || generation != t.generation {
		return false
	}
	t.timer = nil
	t.generation++
	return true
}
