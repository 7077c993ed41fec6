package connection

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	maxWriteWsRetries uint8 = 2
	backOffFactor     uint8 = 2

	sendQueueSize int           = 64
	writeWait     time.Duration = time.Second * 10
	pongWait      time.Duration = time.Second * 60
	pingPeriod    time.Duration = (pongWait * 9) / 10
	maxFrameSize  int64         = 16 * 1024
)

const (
	MessageTypeBytes uint8 = iota
	MessageTypeJSON
)

type ConnectionHandler interface {
	handleConnErr(err error) uint8
	writeToConnWithRetry(msg any, msgType uint8) error
}

type outbound struct {
	msgType uint8
	payload any
}

// Session is one websocket connection. Reads happen on the goroutine
// serving the request; every write goes through the send queue and is
// performed by WritePump.
type Session struct {
	id   string
	conn *websocket.Conn

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	playerId string
	matchId  string
	lastSeen time.Time

	createdAt time.Time
}

func NewSession(id string, conn *websocket.Conn, now time.Time) *Session {
	return &Session{
		id:        id,
		conn:      conn,
		send:      make(chan outbound, sendQueueSize),
		done:      make(chan struct{}),
		lastSeen:  now,
		createdAt: now,
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() *websocket.Conn {
	return s.conn
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) PlayerId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerId
}

func (s *Session) MatchId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchId
}

func (s *Session) bind(playerId, matchId string) {
	s.mu.Lock()
	s.playerId = playerId
	s.matchId = matchId
	s.mu.Unlock()
}

func (s *Session) unbind() (playerId, matchId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerId, matchId = s.playerId, s.matchId
	s.playerId, s.matchId = "", ""
	return playerId, matchId
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// enqueue never blocks. A session whose queue is full is too slow to
// keep up and gets closed.
func (s *Session) enqueue(msg outbound) error {
	select {
	case <-s.done:
		return NewConnErr(ConnSessionClosed).AddDesc("session " + s.id + " is closed")
	default:
	}

	select {
	case s.send <- msg:
		return nil
	default:
		log.Warn().Str("session_id", s.id).Msg("outbound queue full; closing slow session")
		s.Close()
		return NewConnErr(ConnQueueFull).AddDesc("outbound queue full for session " + s.id)
	}
}

// Close stops the write pump and closes the underlying connection. It
// is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// WritePump drains the send queue onto the connection and keeps the
// connection alive with pings until the session is closed.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return

		case msg := <-s.send:
			if err := s.writeToConnWithRetry(msg.payload, msg.msgType); err != nil {
				log.Debug().Err(err).Str("session_id", s.id).Msg("write pump stopped")
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("session_id", s.id).Msg("ping failed")
				return
			}
		}
	}
}

// ReadMessage returns the next text frame. Any error is final for the
// connection.
func (s *Session) ReadMessage() ([]byte, error) {
	_, payload, err := s.conn.ReadMessage()
	if err != nil {
		s.handleConnErr(err)
		return nil, err
	}
	return payload, nil
}

// prepareRead limits frame size and arms the pong based read deadline.
func (s *Session) prepareRead() {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (s *Session) handleConnErr(err error) uint8 {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Warn().Err(err).Str("session_id", s.id).Msg("timeout error")
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		log.Warn().Err(err).Str("session_id", s.id).Msg("high server load/traffic error")
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Info().Str("session_id", s.id).Msg("connection closed by client")
		return ConnLoopBreak
	}

	// Happens if a mobile client goes to background. The slot is not
	// kept for a reconnect, so this ends the session like any close.
	if websocket.IsCloseError(err, websocket.CloseAbnormalClosure) {
		log.Info().Err(err).Str("session_id", s.id).Msg("abnormal closure")
		return ConnLoopBreak
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		log.Error().Err(err).Str("session_id", s.id).Msg("critical error")
		return ConnLoopBreak
	}

	/*
		This might mean that the client is not from the application.
		Breaking not to overwhelm the server with invalid payloads (e.g. binary data)

		CloseUnsupportedData (1003):
		- Client sends a binary message to a server that only supports text messages.

		CloseInvalidFramePayloadData (1007):
		- Client sends a text message with a payload that is not properly encoded as UTF-8.
	*/
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseNoStatusReceived) {
		log.Warn().Err(err).Str("session_id", s.id).Msg("non-critical error")
		return ConnLoopBreak
	}

	log.Debug().Err(err).Str("session_id", s.id).Msg("unexpected error")
	return ConnLoopBreak
}

// Writes to the connection of that session. Timeouts are retried with a
// linear backoff; every other error ends the session.
func (s *Session) writeToConnWithRetry(msg any, msgType uint8) error {
	var retries uint8

writeLoop:
	for {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))

		var err error
		switch msgType {
		case MessageTypeJSON:
			err = s.conn.WriteJSON(msg)

		case MessageTypeBytes:
			respBytes, ok := msg.([]byte)
			if !ok {
				return NewConnErr(ConnInvalidMsgType).AddDesc("msg type expected: []byte got invalid")
			}
			err = s.conn.WriteMessage(websocket.TextMessage, respBytes)

		default:
			return NewConnErr(ConnInvalidMsgType).AddDesc("invalid message type to write with retry")
		}

		if err == nil {
			return nil
		}

		switch s.handleConnErr(err) {
		case ConnLoopRetry:
			if retries < maxWriteWsRetries {
				retries++
				log.Warn().Str("session_id", s.id).Uint8("retry", retries).Msg("writing to ws failed; retrying")
				time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
				continue writeLoop
			}
			return NewConnErr(ConnLoopBreak).AddDesc("max retries reached: " + err.Error())

		default:
			return NewConnErr(ConnLoopBreak).AddDesc("breaking write loop due to: " + err.Error())
		}
	}
}

var _ ConnectionHandler = (*Session)(nil)
