package connection

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

const DefaultIdleTimeout time.Duration = time.Minute * 20

type SessionManager interface {
	mb.EventSink

	GenerateNewSession(conn *websocket.Conn) *Session
	FindSession(sessionId string) (*Session, error)
	TerminateSession(session *Session)

	BindPlayer(session *Session, playerId, matchId string)
	UnbindPlayer(session *Session) (playerId, matchId string)

	ReadFromSessionConn(session *Session) ([]byte, error)
	WriteToSessionConn(session *Session, msg any) error

	CleanupIdle() int
	TerminateAll()
}

// BattleshipSessionManager owns every live session and routes match
// events to the sessions bound to the recipients.
type BattleshipSessionManager struct {
	sessions map[string]*Session
	players  map[string]*Session
	mu       sync.RWMutex

	clock       clockwork.Clock
	idleTimeout time.Duration
}

var _ SessionManager = (*BattleshipSessionManager)(nil)

func NewBattleshipSessionManager(clock clockwork.Clock, idleTimeout time.Duration) *BattleshipSessionManager {
	initMapSize := 10
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &BattleshipSessionManager{
		sessions:    make(map[string]*Session, initMapSize),
		players:     make(map[string]*Session, initMapSize),
		clock:       clock,
		idleTimeout: idleTimeout,
	}
}

func (bsm *BattleshipSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
	session := NewSession(sessionId, conn, bsm.clock.Now())
	if conn != nil {
		session.prepareRead()
	}

	bsm.mu.Lock()
	bsm.sessions[sessionId] = session
	bsm.mu.Unlock()

	return session
}

func (bsm *BattleshipSessionManager) FindSession(sessionId string) (*Session, error) {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()

	session, prs := bsm.sessions[sessionId]
	if !prs || session == nil {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}
	return session, nil
}

func (bsm *BattleshipSessionManager) TerminateSession(session *Session) {
	bsm.mu.Lock()
	delete(bsm.sessions, session.id)
	if playerId := session.PlayerId(); playerId != "" && bsm.players[playerId] == session {
		delete(bsm.players, playerId)
	}
	bsm.mu.Unlock()

	session.Close()
}

func (bsm *BattleshipSessionManager) BindPlayer(session *Session, playerId, matchId string) {
	session.bind(playerId, matchId)

	bsm.mu.Lock()
	bsm.players[playerId] = session
	bsm.mu.Unlock()
}

func (bsm *BattleshipSessionManager) UnbindPlayer(session *Session) (string, string) {
	playerId, matchId := session.unbind()
	if playerId == "" {
		return "", ""
	}

	bsm.mu.Lock()
	if bsm.players[playerId] == session {
		delete(bsm.players, playerId)
	}
	bsm.mu.Unlock()
	return playerId, matchId
}

func (bsm *BattleshipSessionManager) ReadFromSessionConn(session *Session) ([]byte, error) {
	payload, err := session.ReadMessage()
	if err != nil {
		return nil, err
	}
	session.touch(bsm.clock.Now())
	return payload, nil
}

// WriteToSessionConn queues a direct reply to the session.
func (bsm *BattleshipSessionManager) WriteToSessionConn(session *Session, msg any) error {
	return session.enqueue(outbound{msgType: MessageTypeJSON, payload: msg})
}

// Publish fans a match event out to the sessions of its recipients. The
// message is encoded once and queued as bytes for every recipient.
func (bsm *BattleshipSessionManager) Publish(ev mb.Event) {
	msg, ok := EventMessage(ev.Payload)
	if !ok {
		log.Error().Str("match_id", ev.MatchId).Msgf("no wire message for event %T", ev.Payload)
		return
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("match_id", ev.MatchId).Msg("failed to encode event")
		return
	}

	bsm.mu.RLock()
	targets := make([]*Session, 0, len(ev.Recipients))
	for _, playerId := range ev.Recipients {
		if session, prs := bsm.players[playerId]; prs {
			targets = append(targets, session)
		}
	}
	bsm.mu.RUnlock()

	for _, session := range targets {
		if err := session.enqueue(outbound{msgType: MessageTypeBytes, payload: encoded}); err != nil {
			log.Debug().Err(err).Str("match_id", ev.MatchId).Str("session_id", session.id).Msg("event dropped")
		}
	}
}

// CleanupIdle closes sessions that have not sent anything within the
// idle timeout. Closing the connection ends the session's read loop,
// which then leaves the match through the normal path.
func (bsm *BattleshipSessionManager) CleanupIdle() int {
	now := bsm.clock.Now()

	bsm.mu.RLock()
	stale := make([]*Session, 0)
	for _, session := range bsm.sessions {
		if now.Sub(session.idleSince()) > bsm.idleTimeout {
			stale = append(stale, session)
		}
	}
	bsm.mu.RUnlock()

	for _, session := range stale {
		log.Info().Str("session_id", session.id).Msg("closing idle session")
		bsm.TerminateSession(session)
	}
	return len(stale)
}

// ScheduleCleanup registers CleanupIdle as a recurring job on s.
func (bsm *BattleshipSessionManager) ScheduleCleanup(s gocron.Scheduler, interval time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { bsm.CleanupIdle() }),
		gocron.WithName("session-cleanup"),
	)
	return err
}

// TerminateAll closes every session, e.g. on server shutdown.
func (bsm *BattleshipSessionManager) TerminateAll() {
	bsm.mu.RLock()
	all := make([]*Session, 0, len(bsm.sessions))
	for _, session := range bsm.sessions {
		all = append(all, session)
	}
	bsm.mu.RUnlock()

	for _, session := range all {
		bsm.TerminateSession(session)
	}
}

func (bsm *BattleshipSessionManager) Len() int {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()
	return len(bsm.sessions)
}
