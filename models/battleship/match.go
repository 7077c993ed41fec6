package battleship

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

type MatchState uint8

const (
	MatchStateWaiting MatchState = iota
	MatchStatePlacing
	MatchStatePlaying
	MatchStatePaused
	MatchStateFinished
	MatchStateAbandoned
)

func (s MatchState) String() string {
	switch s {
	case MatchStateWaiting:
		return "waiting"
	case MatchStatePlacing:
		return "placing"
	case MatchStatePlaying:
		return "playing"
	case MatchStatePaused:
		return "paused"
	case MatchStateFinished:
		return "finished"
	case MatchStateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

func (s MatchState) IsTerminal() bool {
	return s == MatchStateFinished || s == MatchStateAbandoned
}

// MatchConfig carries the collaborators a match needs. The manager
// fills it for every match it creates.
type MatchConfig struct {
	Clock        clockwork.Clock
	TurnDuration time.Duration
	Sink         EventSink
	Archiver     Archiver
	// OnTerminate is called with the match mutex held, once, when the
	// match reaches a terminal state.
	OnTerminate func(matchId string, state MatchState)
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.TurnDuration <= 0 {
		c.TurnDuration = DefaultTurnDuration
	}
	if c.Sink == nil {
		c.Sink = nopSink{}
	}
	if c.Archiver == nil {
		c.Archiver = nopArchiver{}
	}
	if c.OnTerminate == nil {
		c.OnTerminate = func(string, MatchState) {}
	}
	return c
}

// Match is the authoritative state of one game. Every exported method
// and the turn timer callback run under mu.
type Match struct {
	mu sync.Mutex

	id       string
	name     string
	password string
	hostId   string

	// slots holds the seated players in join order; a slot is nil once
	// its player leaves. participants keeps everyone who ever joined for
	// the archive record.
	slots        [2]*Player
	participants []*Player

	state           MatchState
	currentTurn     string
	winner          string
	totalMoves      int
	pausedRemaining time.Duration
	archived        bool

	createdAt time.Time
	endedAt   time.Time

	timer *TurnTimer
	cfg   MatchConfig
}

func NewMatch(id, name, password, hostId string, cfg MatchConfig) *Match {
	cfg = cfg.withDefaults()
	if name == "" {
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Game " + short
	}

	m := &Match{
		id:           id,
		name:         name,
		password:     password,
		hostId:       hostId,
		participants: make([]*Player, 0, 2),
		state:        MatchStateWaiting,
		createdAt:    cfg.Clock.Now(),
		cfg:          cfg,
	}
	m.timer = NewTurnTimer(cfg.Clock, m.handleTimeout)
	return m
}

func (m *Match) Id() string {
	return m.id
}

func (m *Match) Name() string {
	return m.name
}

func (m *Match) HostId() string {
	return m.hostId
}

func (m *Match) HasPassword() bool {
	return m.password != ""
}

func (m *Match) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Match) TurnDuration() time.Duration {
	return m.cfg.TurnDuration
}

func (m *Match) State() MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Match) CurrentTurn() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTurn
}

func (m *Match) Winner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner
}

func (m *Match) TimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MatchStatePaused {
		return m.pausedRemaining
	}
	return m.timer.Remaining()
}

// FindPlayer returns a seated player.
func (m *Match) FindPlayer(playerId string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seated(playerId)
}

func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupancy()
}

// Join seats a player in the next slot. A match only accepts players
// while it is waiting for its second one.
func (m *Match) Join(playerId, name, password string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.password != "" && password != m.password {
		return nil, cerr.ErrIncorrectPassword
	}
	if m.state != MatchStateWaiting || m.occupancy() == len(m.slots) {
		return nil, cerr.ErrMatchFull(m.id)
	}

	player := NewPlayer(playerId, name, m.occupancy()+1)
	m.slots[player.playerNumber-1] = player
	m.participants = append(m.participants, player)

	if m.occupancy() == len(m.slots) {
		m.state = MatchStatePlacing
	}

	m.emit(PlayerJoined{Player: player.info(), PlayerCount: m.occupancy(), State: m.state})
	log.Info().Str("match_id", m.id).Str("player_id", playerId).Int("player_number", player.playerNumber).Msg("player joined")
	return player, nil
}

// SubmitFleet validates the whole fleet on a scratch grid and only
// then hands it to the player.
func (m *Match) SubmitFleet(playerId string, ships []ShipPlacement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, err := m.seated(playerId)
	if err != nil {
		return err
	}
	if m.state != MatchStateWaiting && m.state != MatchStatePlacing {
		return cerr.ErrWrongMatchState("submit fleet", m.state.String())
	}
	if player.isReady {
		return cerr.ErrWrongMatchState("submit fleet", "ready")
	}

	grid, err := BuildFleetGrid(ships)
	if err != nil {
		return err
	}
	player.setFleet(grid)
	m.emitTo(FleetAccepted{PlayerId: playerId}, playerId)
	log.Info().Str("match_id", m.id).Str("player_id", playerId).Msg("fleet accepted")

	if m.state == MatchStatePlacing && m.allReady() {
		m.start()
	}
	return nil
}

// Fire resolves a shot by the current mover. A hit keeps the turn, a
// miss passes it.
func (m *Match) Fire(playerId string, row, col int) (MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MatchStatePlaying || m.currentTurn != playerId {
		return MoveResult{}, cerr.ErrNotTurnForAttacker(playerId)
	}
	shooter, err := m.seated(playerId)
	if err != nil {
		return MoveResult{}, err
	}
	defender := m.opponent(playerId)
	if defender == nil {
		return MoveResult{}, cerr.ErrNoOpponent
	}

	shot, err := defender.grid.Fire(row, col)
	if err != nil {
		return MoveResult{}, err
	}
	shooter.recordShot(shot.Hit)
	m.totalMoves++

	result := MoveResult{
		PlayerId: playerId,
		Row:      row,
		Col:      col,
		Hit:      shot.Hit,
	}
	if shot.Sunk {
		sunk := *shot.Ship
		result.SunkShip = &sunk
	}

	if defender.grid.IsFleetDestroyed() {
		m.finish(shooter)
		result.GameOver = true
		result.Winner = m.winner
	} else {
		if !shot.Hit {
			m.currentTurn = defender.id
		}
		m.timer.Start(m.cfg.TurnDuration)
		result.TimeRemaining = m.cfg.TurnDuration
	}
	result.CurrentTurn = m.currentTurn

	m.emit(result)
	return result, nil
}

func (m *Match) Pause(playerId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if playerId != m.hostId || m.state != MatchStatePlaying {
		return cerr.ErrOnlyHost(playerId, "pause")
	}

	m.pausedRemaining = m.timer.Remaining()
	m.timer.Cancel()
	m.state = MatchStatePaused

	pausedBy := playerId
	if host, err := m.seated(playerId); err == nil {
		pausedBy = host.name
	}
	m.emit(Paused{PlayerId: playerId, PausedBy: pausedBy})
	log.Info().Str("match_id", m.id).Dur("remaining", m.pausedRemaining).Msg("match paused")
	return nil
}

func (m *Match) Resume(playerId string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if playerId != m.hostId || m.state != MatchStatePaused {
		return 0, cerr.ErrOnlyHost(playerId, "resume")
	}

	return m.resume(), nil
}

// resume restarts the countdown from the remaining time snapshotted by
// Pause, not from a full turn.
func (m *Match) resume() time.Duration {
	remaining := m.pausedRemaining
	if remaining <= 0 {
		remaining = m.cfg.TurnDuration
	}
	m.pausedRemaining = 0
	m.state = MatchStatePlaying
	m.timer.Start(remaining)

	m.emit(Resumed{CurrentTurn: m.currentTurn, TimeRemaining: remaining})
	log.Info().Str("match_id", m.id).Dur("remaining", remaining).Msg("match resumed")
	return remaining
}

// Leave frees the player's slot. When nobody is left the match is torn
// down; otherwise the other player is told and play carries on.
func (m *Match) Leave(playerId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotIndex(playerId)
	if idx < 0 {
		return cerr.ErrPlayerNotExist(playerId)
	}

	// Only the host can resume, so a paused match would be stuck without it.
	if m.state == MatchStatePaused && playerId == m.hostId && m.occupancy() > 1 {
		m.resume()
	}
	m.slots[idx] = nil
	log.Info().Str("match_id", m.id).Str("player_id", playerId).Int("remaining", m.occupancy()).Msg("player left")

	if m.occupancy() == 0 {
		m.teardown()
		return nil
	}

	m.emit(PlayerLeft{PlayerId: playerId, RemainingPlayers: m.occupancy()})
	return nil
}

// Close forcibly tears the match down regardless of who is seated.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown()
}

// Summary is a lobby view of the match.
func (m *Match) Summary() MatchSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary()
}

func (m *Match) summary() MatchSummary {
	return MatchSummary{
		Id:          m.id,
		Name:        m.name,
		PlayerCount: m.occupancy(),
		HasPassword: m.password != "",
		State:       m.state.String(),
		CreatedAt:   m.createdAt,
	}
}

// lobbySummary takes the summary and the terminal check under one lock.
func (m *Match) lobbySummary() (MatchSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary(), m.state.IsTerminal()
}

// terminalSince reports when the match reached a terminal state.
func (m *Match) terminalSince() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endedAt, m.state.IsTerminal()
}

func (m *Match) handleTimeout(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.timer.Expire(generation) || m.state != MatchStatePlaying {
		return
	}

	next := m.opponent(m.currentTurn)
	if next == nil {
		log.Warn().Str("match_id", m.id).Msg("turn timed out with no opponent seated")
		return
	}
	m.currentTurn = next.id
	m.timer.Start(m.cfg.TurnDuration)

	m.emit(TurnTimeout{CurrentTurn: m.currentTurn, TimeRemaining: m.cfg.TurnDuration})
	log.Info().Str("match_id", m.id).Str("current_turn", m.currentTurn).Msg("turn timed out")
}

func (m *Match) start() {
	m.state = MatchStatePlaying
	m.currentTurn = m.firstSeated().id
	m.timer.Start(m.cfg.TurnDuration)

	players := make([]PlayerInfo, 0, len(m.slots))
	for _, p := range m.slots {
		if p != nil {
			players = append(players, p.info())
		}
	}
	m.emit(MatchStarted{
		CurrentTurn:  m.currentTurn,
		HostId:       m.hostId,
		Players:      players,
		TurnDuration: m.cfg.TurnDuration,
	})
	log.Info().Str("match_id", m.id).Str("current_turn", m.currentTurn).Msg("match started")
}

func (m *Match) finish(winner *Player) {
	m.state = MatchStateFinished
	m.winner = winner.id
	m.endedAt = m.cfg.Clock.Now()
	m.timer.Cancel()

	m.archive(true)
	m.cfg.OnTerminate(m.id, m.state)
	log.Info().Str("match_id", m.id).Str("winner", m.winner).Msg("match finished")
}

func (m *Match) teardown() {
	m.timer.Cancel()
	if m.state.IsTerminal() {
		return
	}

	m.state = MatchStateAbandoned
	m.endedAt = m.cfg.Clock.Now()
	m.archive(false)
	m.cfg.OnTerminate(m.id, m.state)
	log.Info().Str("match_id", m.id).Msg("match abandoned")
}

func (m *Match) archive(completed bool) {
	if m.archived {
		return
	}
	m.archived = true
	m.cfg.Archiver.Archive(m.buildRecord(completed))
}

func (m *Match) buildRecord(completed bool) ArchiveRecord {
	rec := ArchiveRecord{
		MatchId:         m.id,
		MatchName:       m.name,
		Participants:    make([]ArchiveParticipant, 0, len(m.participants)),
		DurationSeconds: int64(m.endedAt.Sub(m.createdAt).Round(time.Second) / time.Second),
		TotalMoves:      m.totalMoves,
		CreatedAt:       m.createdAt,
		CompletedAt:     m.endedAt,
		FinalState:      m.state.String(),
		Completed:       completed,
	}

	for _, p := range m.participants {
		rec.Participants = append(rec.Participants, ArchiveParticipant{
			Id:           p.id,
			Name:         p.name,
			PlayerNumber: p.playerNumber,
			Hits:         p.hits,
			Misses:       p.misses,
			Accuracy:     p.Accuracy(),
		})
		if p.id == m.winner {
			winnerId := p.id
			rec.WinnerId = &winnerId
			rec.WinnerName = p.name
		}
	}
	return rec
}

// emit publishes to every seated player.
func (m *Match) emit(payload EventPayload) {
	recipients := make([]string, 0, len(m.slots))
	for _, p := range m.slots {
		if p != nil {
			recipients = append(recipients, p.id)
		}
	}
	if len(recipients) == 0 {
		return
	}
	m.cfg.Sink.Publish(Event{MatchId: m.id, Recipients: recipients, Payload: payload})
}

func (m *Match) emitTo(payload EventPayload, recipients ...string) {
	m.cfg.Sink.Publish(Event{MatchId: m.id, Recipients: recipients, Payload: payload})
}

func (m *Match) seated(playerId string) (*Player, error) {
	if idx := m.slotIndex(playerId); idx >= 0 {
		return m.slots[idx], nil
	}
	return nil, cerr.ErrPlayerNotExist(playerId)
}

func (m *Match) slotIndex(playerId string) int {
	for i, p := range m.slots {
		if p != nil && p.id == playerId {
			return i
		}
	}
	return -1
}

func (m *Match) opponent(playerId string) *Player {
	for _, p := range m.slots {
		if p != nil && p.id != playerId {
			return p
		}
	}
	return nil
}

func (m *Match) firstSeated() *Player {
	for _, p := range m.slots {
		if p != nil {
			return p
		}
	}
	return nil
}

func (m *Match) occupancy() int {
	n := 0
	for _, p := range m.slots {
		if p != nil {
			n++
		}
	}
	return n
}

func (m *Match) allReady() bool {
	for _, p := range m.slots {
		if p == nil || !p.isReady {
			return false
		}
	}
	return true
}
