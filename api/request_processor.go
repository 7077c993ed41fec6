package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
)

var (
	// allowedOrigins     = map[string]bool{
	// 	"https://www.allowed_url.com": true,
	// }
	upgrader = websocket.Upgrader{

		// good average time since this is not a high-latency operation such as video streaming
		HandshakeTimeout: time.Second * 5,

		// probably more that enough but this is a good average size
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
)

// Analytics is the subset of the per-server counters the transport
// touches. A nil Analytics disables them.
type Analytics interface {
	IncrementMatchesCreatedCount(ctx context.Context) error
	GetMatchesCreatedCount(ctx context.Context) (int64, error)
	GetMatchesFinishedCount(ctx context.Context) (int64, error)
}

type RequestProcessor struct {
	sessionManager mc.SessionManager
	matchManager   mb.MatchManager
	analytics      Analytics
	publicURL      string

	// counts read loops still running, endSession included
	sessionLoops *sync.WaitGroup
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	matchManager mb.MatchManager,
	analytics Analytics,
	publicURL string,
) RequestProcessor {
	return RequestProcessor{
		sessionManager: sessionManager,
		matchManager:   matchManager,
		analytics:      analytics,
		publicURL:      publicURL,
		sessionLoops:   &sync.WaitGroup{},
	}
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// use Upgrade method to make a websocket connection; on failure
	// Upgrade has already replied with an HTTP error
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	session := rp.sessionManager.GenerateNewSession(conn)
	log.Info().Str("session_id", session.Id()).Str("remote_addr", conn.RemoteAddr().String()).Msg("a new connection established")

	rp.sessionLoops.Add(1)
	defer rp.sessionLoops.Done()

	go session.WritePump()
	rp.processSessionRequests(session)
}

// endSession runs once the read loop is over, whatever the reason: the
// player leaves the match they were bound to and the session is gone.
func (rp RequestProcessor) endSession(session *mc.Session) {
	playerId, matchId := rp.sessionManager.UnbindPlayer(session)
	if playerId != "" {
		if match, err := rp.matchManager.GetMatch(matchId); err == nil {
			if err := match.Leave(playerId); err != nil {
				log.Debug().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("leave on disconnect")
			}
		}
	}

	rp.sessionManager.TerminateSession(session)
	log.Info().Str("session_id", session.Id()).Msg("session terminated")
}

func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	defer rp.endSession(session)

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: session.Id()})
	if err := rp.sessionManager.WriteToSessionConn(session, resp); err != nil {
		return
	}

sessionLoop:
	for {
		// A WebSocket frame can be one of 6 types: text=1, binary=2, ping=9, pong=10, close=8 and continuation=0
		// https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
		payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			break sessionLoop
		}

		var signal struct {
			Code *uint8 `json:"code"`
		}
		if err := json.Unmarshal(payload, &signal); err != nil || signal.Code == nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err := rp.sessionManager.WriteToSessionConn(session, msg); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		req := NewRequest(session, payload)
		var reply any

		switch *signal.Code {
		case mc.CodeCreateMatch:
			reply = req.HandleCreateMatch(rp)

		case mc.CodeJoinMatch:
			reply = req.HandleJoinMatch(rp)

		// Success arrives through the fleet-accepted event so that it is
		// ordered before match-started.
		case mc.CodeSubmitFleet:
			reply = req.HandleSubmitFleet(rp)

		// On success the move result is broadcast to both players
		case mc.CodeFire:
			reply = req.HandleFire(rp)

		case mc.CodePause:
			reply = req.HandlePause(rp)

		case mc.CodeResume:
			reply = req.HandleResume(rp)

		case mc.CodeLeave:
			reply = req.HandleLeave(rp)

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			reply = respInvalidSignal
		}

		if reply == nil {
			continue sessionLoop
		}
		if err := rp.sessionManager.WriteToSessionConn(session, reply); err != nil {
			break sessionLoop
		}
	}
}
