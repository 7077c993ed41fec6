package battleship

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestTurnTimerExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewTurnTimer(clock, func(gen uint64) { fired <- gen })

	timer.Start(time.Second * 5)
	require.True(t, timer.Active())
	require.Equal(t, time.Second*5, timer.Remaining())

	clock.Advance(time.Second * 4)
	require.Equal(t, time.Second, timer.Remaining())
	require.Empty(t, fired)

	clock.Advance(time.Second)
	var gen uint64
	select {
	case gen = <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer should have fired")
	}

	require.True(t, timer.Expire(gen))
	require.False(t, timer.Active())
	require.False(t, timer.Expire(gen), "an expiry can only be claimed once")
	require.Zero(t, timer.Remaining())
}

func TestTurnTimerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewTurnTimer(clock, func(gen uint64) { fired <- gen })

	timer.Start(time.Second * 5)
	timer.Cancel()
	require.False(t, timer.Active())

	clock.Advance(time.Minute)
	require.Never(t, func() bool { return len(fired) > 0 }, time.Millisecond*100, time.Millisecond*10)
}

func TestTurnTimerRestartDropsPrevious(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewTurnTimer(clock, func(gen uint64) { fired <- gen })

	timer.Start(time.Second * 5)
	timer.Start(time.Second * 10)

	clock.Advance(time.Second * 5)
	require.Never(t, func() bool { return len(fired) > 0 }, time.Millisecond*100, time.Millisecond*10)

	clock.Advance(time.Second * 5)
	select {
	case gen := <-fired:
		require.True(t, timer.Expire(gen))
	case <-time.After(time.Second):
		t.Fatal("restarted timer should have fired")
	}
	require.Empty(t, fired)
}

func TestTurnTimerStaleCallback(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewTurnTimer(clock, func(gen uint64) { fired <- gen })

	timer.Start(time.Second)
	clock.Advance(time.Second)
	gen := <-fired

	// The owner cancelled before it got to handle the expiry.
	timer.Cancel()
	require.False(t, timer.Expire(gen))
}
