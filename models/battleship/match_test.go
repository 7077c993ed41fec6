package battleship

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

func TestMatchDefaultName(t *testing.T) {
	tm := newTestMatch(t)
	require.Equal(t, "Game 01234567", tm.Name())
	require.False(t, tm.HasPassword())
	require.Equal(t, DefaultTurnDuration, tm.TurnDuration())

	named := NewMatch("abc", "Friday Night", "", testHostId, MatchConfig{})
	require.Equal(t, "Friday Night", named.Name())
}

func TestMatchJoin(t *testing.T) {
	t.Run("fills both slots then refuses", func(t *testing.T) {
		tm := newTestMatch(t)

		host, err := tm.Join(testHostId, "Alice", "")
		require.NoError(t, err)
		require.Equal(t, 1, host.PlayerNumber())
		require.Equal(t, MatchStateWaiting, tm.State())

		guest, err := tm.Join(testJoinId, "", "")
		require.NoError(t, err)
		require.Equal(t, 2, guest.PlayerNumber())
		require.Equal(t, "Player 2", guest.Name())
		require.Equal(t, MatchStatePlacing, tm.State())

		_, err = tm.Join("third", "Carol", "")
		require.ErrorIs(t, err, cerr.ErrSessionFull)
		require.Equal(t, 2, tm.PlayerCount())

		joined := tm.sink.last().Payload.(PlayerJoined)
		require.Equal(t, 2, joined.PlayerCount)
		require.Equal(t, MatchStatePlacing, joined.State)
	})

	t.Run("password", func(t *testing.T) {
		m := NewMatch("locked-match", "", "secret", testHostId, MatchConfig{})
		require.True(t, m.HasPassword())

		_, err := m.Join(testHostId, "Alice", "wrong")
		require.ErrorIs(t, err, cerr.ErrIncorrectPassword)
		require.Zero(t, m.PlayerCount())

		_, err = m.Join(testHostId, "Alice", "secret")
		require.NoError(t, err)
	})

	t.Run("freed slot during placement is not reopened", func(t *testing.T) {
		tm := newTestMatch(t)
		_, _ = tm.Join(testHostId, "Alice", "")
		_, _ = tm.Join(testJoinId, "Bob", "")
		require.NoError(t, tm.Leave(testJoinId))

		_, err := tm.Join("third", "Carol", "")
		require.ErrorIs(t, err, cerr.ErrSessionFull)
	})
}

func TestMatchSubmitFleet(t *testing.T) {
	tm := newTestMatch(t)
	_, _ = tm.Join(testHostId, "Alice", "")

	t.Run("unknown player", func(t *testing.T) {
		err := tm.SubmitFleet("ghost", standardFleet())
		require.ErrorIs(t, err, cerr.ErrPlayerNotFound)
	})

	t.Run("invalid fleet leaves the player untouched", func(t *testing.T) {
		err := tm.SubmitFleet(testHostId, standardFleet()[1:])
		require.ErrorIs(t, err, cerr.ErrInvalidFleet)

		host, err := tm.FindPlayer(testHostId)
		require.NoError(t, err)
		require.False(t, host.IsReady())
		require.Empty(t, host.Grid().Ships())
	})

	t.Run("bad placement leaves the player untouched", func(t *testing.T) {
		fleet := standardFleet()
		fleet[2] = ShipPlacement{Ship: NewShip(ShipNameCruiser, line(0, 7, 3, true)...)}
		fleet[2].Ship.Positions[2] = NewCoordinates(0, 10)

		err := tm.SubmitFleet(testHostId, fleet)
		require.ErrorIs(t, err, cerr.ErrPlacement)

		host, _ := tm.FindPlayer(testHostId)
		require.False(t, host.IsReady())
		require.Empty(t, host.Grid().Ships())
	})

	t.Run("host may place before the opponent arrives", func(t *testing.T) {
		require.NoError(t, tm.SubmitFleet(testHostId, standardFleet()))
		require.Equal(t, MatchStateWaiting, tm.State())

		err := tm.SubmitFleet(testHostId, standardFleet())
		require.ErrorIs(t, err, cerr.ErrInvalidState)
	})

	t.Run("second fleet starts the match", func(t *testing.T) {
		_, err := tm.Join(testJoinId, "Bob", "")
		require.NoError(t, err)
		require.Equal(t, MatchStatePlacing, tm.State())

		require.NoError(t, tm.SubmitFleet(testJoinId, standardFleet()))
		require.Equal(t, MatchStatePlaying, tm.State())
		require.Equal(t, testHostId, tm.CurrentTurn())
		require.Equal(t, DefaultTurnDuration, tm.TimeRemaining())

		started, ok := tm.sink.last().Payload.(MatchStarted)
		require.True(t, ok)
		require.Equal(t, testHostId, started.CurrentTurn)
		require.Equal(t, testHostId, started.HostId)
		require.Len(t, started.Players, 2)
		require.ElementsMatch(t, []string{testHostId, testJoinId}, tm.sink.last().Recipients)
	})
}

func TestMatchFireTurnOrder(t *testing.T) {
	tm := newPlayingMatch(t)

	// Host opens with a miss so the guest becomes the mover.
	res, err := tm.Fire(testHostId, 9, 9)
	require.NoError(t, err)
	require.False(t, res.Hit)
	require.Equal(t, testJoinId, res.CurrentTurn)

	_, err = tm.Fire(testHostId, 8, 8)
	require.ErrorIs(t, err, cerr.ErrNotYourTurn)

	for col := 0; col < 5; col++ {
		res, err = tm.Fire(testJoinId, 0, col)
		require.NoError(t, err)
		require.True(t, res.Hit)
		require.Equal(t, testJoinId, res.CurrentTurn, "a hit keeps the turn")
		require.False(t, res.GameOver)
		require.Equal(t, DefaultTurnDuration, res.TimeRemaining)
		if col < 4 {
			require.Nil(t, res.SunkShip)
		}
	}
	require.NotNil(t, res.SunkShip)
	require.Equal(t, ShipNameCarrier, res.SunkShip.Name)

	res, err = tm.Fire(testJoinId, 9, 9)
	require.NoError(t, err)
	require.False(t, res.Hit)
	require.Equal(t, testHostId, res.CurrentTurn)
	require.Equal(t, testHostId, tm.CurrentTurn())

	guest, _ := tm.FindPlayer(testJoinId)
	require.Equal(t, 5, guest.Hits())
	require.Equal(t, 1, guest.Misses())
	require.Equal(t, 83, guest.Accuracy())
}

func TestMatchFireRejections(t *testing.T) {
	tm := newPlayingMatch(t)

	_, err := tm.Fire(testHostId, 10, 0)
	require.ErrorIs(t, err, cerr.ErrOutOfBounds)
	require.Equal(t, testHostId, tm.CurrentTurn())

	_, err = tm.Fire(testHostId, 9, 9)
	require.NoError(t, err)
	_, err = tm.Fire(testJoinId, 9, 9)
	require.NoError(t, err)

	_, err = tm.Fire(testHostId, 9, 9)
	require.ErrorIs(t, err, cerr.ErrDuplicateFire)
	require.Equal(t, testHostId, tm.CurrentTurn(), "rejected shot must not pass the turn")

	tm.mu.Lock()
	require.Equal(t, 2, tm.totalMoves)
	tm.mu.Unlock()

	_, err = tm.Fire("ghost", 0, 0)
	require.ErrorIs(t, err, cerr.ErrNotYourTurn)
}

func TestMatchFinishesOnLastHit(t *testing.T) {
	tm := newPlayingMatch(t)

	var targets []Coordinates
	for _, placement := range standardFleet() {
		targets = append(targets, placement.Ship.Positions...)
	}

	for i, pos := range targets {
		res, err := tm.Fire(testHostId, pos.Row, pos.Col)
		require.NoError(t, err)
		require.True(t, res.Hit)

		if i < len(targets)-1 {
			require.False(t, res.GameOver)
			require.Equal(t, MatchStatePlaying, tm.State())
			continue
		}

		require.True(t, res.GameOver)
		require.Equal(t, testHostId, res.Winner)
		require.Zero(t, res.TimeRemaining)
	}

	require.Equal(t, MatchStateFinished, tm.State())
	require.Equal(t, testHostId, tm.Winner())

	_, err := tm.Fire(testHostId, 9, 9)
	require.ErrorIs(t, err, cerr.ErrNotYourTurn)

	records := tm.archiver.all()
	require.Len(t, records, 1)
	rec := records[0]
	require.True(t, rec.Completed)
	require.Equal(t, "finished", rec.FinalState)
	require.NotNil(t, rec.WinnerId)
	require.Equal(t, testHostId, *rec.WinnerId)
	require.Equal(t, "Alice", rec.WinnerName)
	require.Equal(t, 17, rec.TotalMoves)
	require.Len(t, rec.Participants, 2)
	require.Equal(t, 17, rec.Participants[0].Hits)
	require.Equal(t, 100, rec.Participants[0].Accuracy)

	// No turn timer survives the end of the match.
	tm.clock.Advance(time.Minute)
	require.Never(t, func() bool { return tm.sink.count(isTurnTimeout) > 0 }, time.Millisecond*100, time.Millisecond*10)

	tm.Close()
	require.Len(t, tm.archiver.all(), 1, "a finished match is archived once")
	require.Equal(t, MatchStateFinished, tm.State())
}

func TestMatchTurnTimeout(t *testing.T) {
	tm := newPlayingMatch(t)

	tm.clock.Advance(DefaultTurnDuration)
	require.Eventually(t, func() bool { return tm.CurrentTurn() == testJoinId }, time.Second, time.Millisecond*5)
	require.Equal(t, MatchStatePlaying, tm.State())
	require.Equal(t, 1, tm.sink.count(isTurnTimeout))

	tm.clock.Advance(DefaultTurnDuration)
	require.Eventually(t, func() bool { return tm.CurrentTurn() == testHostId }, time.Second, time.Millisecond*5)
	require.Equal(t, MatchStatePlaying, tm.State())
	require.Equal(t, 2, tm.sink.count(isTurnTimeout))
	require.Empty(t, tm.archiver.all())
}

func TestMatchPauseResume(t *testing.T) {
	tm := newPlayingMatch(t)

	t.Run("only the host while playing", func(t *testing.T) {
		require.ErrorIs(t, tm.Pause(testJoinId), cerr.ErrNotHost)
		_, err := tm.Resume(testHostId)
		require.ErrorIs(t, err, cerr.ErrNotHost)
	})

	tm.clock.Advance(time.Second * 10)
	require.NoError(t, tm.Pause(testHostId))
	require.Equal(t, MatchStatePaused, tm.State())
	require.Equal(t, time.Second*20, tm.TimeRemaining())

	paused, ok := tm.sink.last().Payload.(Paused)
	require.True(t, ok)
	require.Equal(t, "Alice", paused.PausedBy)

	_, err := tm.Fire(testHostId, 0, 0)
	require.ErrorIs(t, err, cerr.ErrNotYourTurn)
	require.ErrorIs(t, tm.Pause(testHostId), cerr.ErrNotHost)

	// The clock keeps moving while paused but nothing expires.
	tm.clock.Advance(time.Minute)
	require.Never(t, func() bool { return tm.sink.count(isTurnTimeout) > 0 }, time.Millisecond*100, time.Millisecond*10)

	_, err = tm.Resume(testJoinId)
	require.ErrorIs(t, err, cerr.ErrNotHost)

	remaining, err := tm.Resume(testHostId)
	require.NoError(t, err)
	require.Equal(t, time.Second*20, remaining)
	require.Equal(t, time.Second*20, tm.TimeRemaining())
	require.Equal(t, testHostId, tm.CurrentTurn())

	resumed, ok := tm.sink.last().Payload.(Resumed)
	require.True(t, ok)
	require.Equal(t, testHostId, resumed.CurrentTurn)

	tm.clock.Advance(time.Second * 19)
	require.Equal(t, testHostId, tm.CurrentTurn())

	tm.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return tm.CurrentTurn() == testJoinId }, time.Second, time.Millisecond*5)
}

func TestMatchPauseBeforeStart(t *testing.T) {
	tm := newTestMatch(t)
	_, _ = tm.Join(testHostId, "Alice", "")
	require.ErrorIs(t, tm.Pause(testHostId), cerr.ErrNotHost)
}

func TestMatchAbandoned(t *testing.T) {
	tm := newTestMatch(t)
	_, _ = tm.Join(testHostId, "Alice", "")
	_, _ = tm.Join(testJoinId, "Bob", "")
	require.NoError(t, tm.SubmitFleet(testHostId, standardFleet()))

	require.NoError(t, tm.Leave(testJoinId))
	require.Equal(t, MatchStatePlacing, tm.State())

	left := tm.sink.last()
	require.Equal(t, []string{testHostId}, left.Recipients)
	require.Equal(t, PlayerLeft{PlayerId: testJoinId, RemainingPlayers: 1}, left.Payload)

	require.ErrorIs(t, tm.Leave(testJoinId), cerr.ErrPlayerNotFound)

	require.NoError(t, tm.Leave(testHostId))
	require.Equal(t, MatchStateAbandoned, tm.State())

	records := tm.archiver.all()
	require.Len(t, records, 1)
	rec := records[0]
	require.False(t, rec.Completed)
	require.Nil(t, rec.WinnerId)
	require.Equal(t, "abandoned", rec.FinalState)
	require.Len(t, rec.Participants, 2)

	tm.Close()
	require.Len(t, tm.archiver.all(), 1)
}

func TestMatchLeaveMidGame(t *testing.T) {
	tm := newPlayingMatch(t)

	require.NoError(t, tm.Leave(testJoinId))
	require.Equal(t, MatchStatePlaying, tm.State())

	_, err := tm.Fire(testHostId, 0, 0)
	require.ErrorIs(t, err, cerr.ErrNoOpponent)

	// With nobody to pass to, the timeout stops the countdown and keeps
	// the match alive.
	tm.clock.Advance(DefaultTurnDuration)
	require.Eventually(t, func() bool { return tm.TimeRemaining() == 0 }, time.Second, time.Millisecond*5)
	require.Equal(t, testHostId, tm.CurrentTurn())
	require.Equal(t, MatchStatePlaying, tm.State())
	require.Zero(t, tm.sink.count(isTurnTimeout))
}

func TestMatchLeaveWhilePaused(t *testing.T) {
	tm := newPlayingMatch(t)

	tm.clock.Advance(time.Second * 10)
	require.NoError(t, tm.Pause(testHostId))
	require.NoError(t, tm.Leave(testHostId))

	// The host's departure resumes play from the paused countdown.
	require.Equal(t, MatchStatePlaying, tm.State())
	require.Equal(t, time.Second*20, tm.TimeRemaining())
	require.Equal(t, 1, tm.sink.count(func(p EventPayload) bool {
		_, ok := p.(Resumed)
		return ok
	}))

	left := tm.sink.last()
	require.Equal(t, []string{testJoinId}, left.Recipients)
	require.Equal(t, PlayerLeft{PlayerId: testHostId, RemainingPlayers: 1}, left.Payload)

	tm.clock.Advance(time.Second * 20)
	require.Eventually(t, func() bool { return tm.CurrentTurn() == testJoinId }, time.Second, time.Millisecond*5)
	require.Equal(t, 1, tm.sink.count(isTurnTimeout))

	_, err := tm.Fire(testJoinId, 0, 0)
	require.ErrorIs(t, err, cerr.ErrNoOpponent)
}

func TestMatchLastPlayerLeavesWhilePaused(t *testing.T) {
	tm := newPlayingMatch(t)

	require.NoError(t, tm.Pause(testHostId))
	require.NoError(t, tm.Leave(testJoinId))
	require.Equal(t, MatchStatePaused, tm.State())

	require.NoError(t, tm.Leave(testHostId))
	require.Equal(t, MatchStateAbandoned, tm.State())
	require.Len(t, tm.archiver.all(), 1)
}

func TestMatchConcurrentFireAndTimeout(t *testing.T) {
	tm := newPlayingMatch(t)

	var wg sync.WaitGroup
	for _, id := range []string{testHostId, testJoinId} {
		wg.Add(1)
		go func(playerId string, seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 300; i++ {
				_, _ = tm.Fire(playerId, rng.Intn(GridSize), rng.Intn(GridSize))
			}
		}(id, int64(len(id)))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			tm.clock.Advance(DefaultTurnDuration / 2)
		}
	}()
	wg.Wait()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	fired := 0
	for _, p := range tm.slots {
		resolved := 0
		for r := 0; r < GridSize; r++ {
			for c := 0; c < GridSize; c++ {
				if state := p.grid.Cell(r, c); state == CellHit || state == CellMiss {
					resolved++
				}
			}
		}
		shooter := tm.opponent(p.id)
		require.Equal(t, resolved, shooter.hits+shooter.misses, "every resolved cell is exactly one accepted shot")
		fired += resolved
	}
	require.Equal(t, fired, tm.totalMoves)
}
