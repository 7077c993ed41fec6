package battleship

import (
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
)

const (
	DefaultRetention     time.Duration = time.Minute * 30
	DefaultSweepInterval time.Duration = time.Minute * 30

	// Finished matches linger briefly so the final move result reaches
	// both players before the match disappears.
	DefaultEvictionDelay time.Duration = time.Second * 5
)

type MatchSummary struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	HasPassword bool      `json:"has_password"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateMatchParams struct {
	HostId    string
	HostName  string
	MatchName string
	Password  string
}

type MatchManager interface {
	CreateMatch(params CreateMatchParams) (string, error)
	GetMatch(matchId string) (*Match, error)
	RemoveMatch(matchId string)
	ListActive() []MatchSummary
	Sweep() int
}

type BattleshipMatchManager struct {
	matches map[string]*Match
	mu      sync.RWMutex

	clock         clockwork.Clock
	turnDuration  time.Duration
	retention     time.Duration
	evictionDelay time.Duration
	sink          EventSink
	archiver      Archiver
}

var _ MatchManager = (*BattleshipMatchManager)(nil)

type ManagerOption func(*BattleshipMatchManager)

func WithClock(clock clockwork.Clock) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.clock = clock
	}
}

func WithTurnDuration(d time.Duration) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.turnDuration = d
	}
}

func WithRetention(d time.Duration) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.retention = d
	}
}

func WithEvictionDelay(d time.Duration) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.evictionDelay = d
	}
}

func WithEventSink(sink EventSink) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.sink = sink
	}
}

func WithArchiver(archiver Archiver) ManagerOption {
	return func(bmm *BattleshipMatchManager) {
		bmm.archiver = archiver
	}
}

func NewBattleshipMatchManager(opts ...ManagerOption) *BattleshipMatchManager {
	bmm := &BattleshipMatchManager{
		matches:       make(map[string]*Match, 10),
		clock:         clockwork.NewRealClock(),
		turnDuration:  DefaultTurnDuration,
		retention:     DefaultRetention,
		evictionDelay: DefaultEvictionDelay,
		sink:          nopSink{},
		archiver:      nopArchiver{},
	}
	for _, opt := range opts {
		opt(bmm)
	}
	return bmm
}

// CreateMatch registers a new match and seats the host in slot 1.
func (bmm *BattleshipMatchManager) CreateMatch(params CreateMatchParams) (string, error) {
	matchId := uuid.NewString()
	match := NewMatch(matchId, params.MatchName, params.Password, params.HostId, MatchConfig{
		Clock:        bmm.clock,
		TurnDuration: bmm.turnDuration,
		Sink:         bmm.sink,
		Archiver:     bmm.archiver,
		OnTerminate:  bmm.onMatchTerminated,
	})

	if _, err := match.Join(params.HostId, params.HostName, params.Password); err != nil {
		return "", err
	}

	bmm.mu.Lock()
	bmm.matches[matchId] = match
	bmm.mu.Unlock()

	log.Info().Str("match_id", matchId).Str("host_id", params.HostId).Msg("match created")
	return matchId, nil
}

func (bmm *BattleshipMatchManager) GetMatch(matchId string) (*Match, error) {
	bmm.mu.RLock()
	match, prs := bmm.matches[matchId]
	bmm.mu.RUnlock()
	if !prs {
		return nil, cerr.ErrMatchNotExists(matchId)
	}

	return match, nil
}

// RemoveMatch drops the match from the table and tears it down if it
// is still live.
func (bmm *BattleshipMatchManager) RemoveMatch(matchId string) {
	bmm.mu.Lock()
	match, prs := bmm.matches[matchId]
	delete(bmm.matches, matchId)
	bmm.mu.Unlock()

	if prs {
		match.Close()
		log.Info().Str("match_id", matchId).Msg("match removed")
	}
}

// ListActive returns every match that has not reached a terminal state,
// oldest first.
func (bmm *BattleshipMatchManager) ListActive() []MatchSummary {
	bmm.mu.RLock()
	matches := make([]*Match, 0, len(bmm.matches))
	for _, match := range bmm.matches {
		matches = append(matches, match)
	}
	bmm.mu.RUnlock()

	summaries := make([]MatchSummary, 0, len(matches))
	for _, match := range matches {
		summary, terminal := match.lobbySummary()
		if terminal {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Sweep removes matches whose terminal state is older than the
// retention window and reports how many were removed.
func (bmm *BattleshipMatchManager) Sweep() int {
	now := bmm.clock.Now()

	bmm.mu.Lock()
	defer bmm.mu.Unlock()

	removed := 0
	for id, match := range bmm.matches {
		endedAt, terminal := match.terminalSince()
		if terminal && now.Sub(endedAt) > bmm.retention {
			delete(bmm.matches, id)
			removed++
			log.Debug().Str("match_id", id).Msg("swept terminal match")
		}
	}

	log.Info().Int("removed", removed).Int("live", len(bmm.matches)).Msg("match sweep done")
	return removed
}

// ScheduleSweep registers Sweep as a recurring job on s.
func (bmm *BattleshipMatchManager) ScheduleSweep(s gocron.Scheduler, interval time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { bmm.Sweep() }),
		gocron.WithName("match-sweep"),
	)
	return err
}

// onMatchTerminated runs with the match mutex held, so eviction is
// deferred onto the clock rather than taking bmm.mu here.
func (bmm *BattleshipMatchManager) onMatchTerminated(matchId string, state MatchState) {
	if state != MatchStateFinished {
		return
	}
	bmm.clock.AfterFunc(bmm.evictionDelay, func() {
		bmm.mu.Lock()
		delete(bmm.matches, matchId)
		bmm.mu.Unlock()
		log.Debug().Str("match_id", matchId).Msg("evicted finished match")
	})
}

func (bmm *BattleshipMatchManager) Len() int {
	bmm.mu.RLock()
	defer bmm.mu.RUnlock()
	return len(bmm.matches)
}
