package battleship

import (
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	testHostId = "host-player"
	testJoinId = "join-player"
)

// standardFleet is the layout from the rules: one ship per row starting
// at column 0.
func standardFleet() []ShipPlacement {
	return []ShipPlacement{
		{Ship: NewShip(ShipNameCarrier, line(0, 0, 5, true)...), Orientation: OrientationHorizontal},
		{Ship: NewShip(ShipNameBattleship, line(1, 0, 4, true)...), Orientation: OrientationHorizontal},
		{Ship: NewShip(ShipNameCruiser, line(2, 0, 3, true)...), Orientation: OrientationHorizontal},
		{Ship: NewShip(ShipNameSubmarine, line(3, 0, 3, true)...), Orientation: OrientationHorizontal},
		{Ship: NewShip(ShipNameDestroyer, line(4, 0, 2, true)...), Orientation: OrientationHorizontal},
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func (s *recordingSink) count(match func(EventPayload) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if match(ev.Payload) {
			n++
		}
	}
	return n
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []ArchiveRecord
}

func (a *recordingArchiver) Archive(rec ArchiveRecord) {
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
}

func (a *recordingArchiver) all() []ArchiveRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ArchiveRecord(nil), a.records...)
}

type testMatch struct {
	*Match
	clock    *clockwork.FakeClock
	sink     *recordingSink
	archiver *recordingArchiver
}

func newTestMatch(t *testing.T) testMatch {
	t.Helper()
	tm := testMatch{
		clock:    clockwork.NewFakeClock(),
		sink:     &recordingSink{},
		archiver: &recordingArchiver{},
	}
	tm.Match = NewMatch("0123456789abcdef", "", "", testHostId, MatchConfig{
		Clock:    tm.clock,
		Sink:     tm.sink,
		Archiver: tm.archiver,
	})
	return tm
}

// newPlayingMatch seats both players with the standard fleet. The host
// moves first.
func newPlayingMatch(t *testing.T) testMatch {
	t.Helper()
	tm := newTestMatch(t)
	_, err := tm.Join(testHostId, "Alice", "")
	require.NoError(t, err)
	_, err = tm.Join(testJoinId, "Bob", "")
	require.NoError(t, err)
	require.NoError(t, tm.SubmitFleet(testHostId, standardFleet()))
	require.NoError(t, tm.SubmitFleet(testJoinId, standardFleet()))
	require.Equal(t, MatchStatePlaying, tm.State())
	return tm
}

func isTurnTimeout(p EventPayload) bool {
	_, ok := p.(TurnTimeout)
	return ok
}
