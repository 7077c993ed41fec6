package connection

import (
	"time"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespCreateMatch struct {
	MatchId      string `json:"match_id"`
	MatchName    string `json:"match_name"`
	PlayerId     string `json:"player_id"`
	PlayerNumber int    `json:"player_number"`
	InviteLink   string `json:"invite_link"`
}

type RespJoinMatch struct {
	MatchId      string `json:"match_id"`
	MatchName    string `json:"match_name"`
	PlayerId     string `json:"player_id"`
	PlayerNumber int    `json:"player_number"`
	HostId       string `json:"host_id"`
}

type RespSubmitFleet struct {
	PlayerId string `json:"player_id"`
}

type RespPlayerJoined struct {
	Player      mb.PlayerInfo `json:"player"`
	PlayerCount int           `json:"player_count"`
	State       string        `json:"state"`
}

type RespPlayerLeft struct {
	PlayerId         string `json:"player_id"`
	RemainingPlayers int    `json:"remaining_players"`
}

type RespMatchStarted struct {
	CurrentTurn    string          `json:"current_turn"`
	HostId         string          `json:"host_id"`
	Players        []mb.PlayerInfo `json:"players"`
	TurnDurationMs int64           `json:"turn_duration_ms"`
}

type RespMoveResult struct {
	PlayerId        string   `json:"player_id"`
	Row             int      `json:"row"`
	Col             int      `json:"col"`
	Hit             bool     `json:"hit"`
	SunkShip        *mb.Ship `json:"sunk_ship,omitempty"`
	CurrentTurn     string   `json:"current_turn"`
	GameOver        bool     `json:"game_over"`
	Winner          string   `json:"winner,omitempty"`
	TimeRemainingMs int64    `json:"time_remaining_ms"`
}

type RespTurnTimeout struct {
	CurrentTurn     string `json:"current_turn"`
	TimeRemainingMs int64  `json:"time_remaining_ms"`
}

type RespPaused struct {
	PlayerId string `json:"player_id"`
	PausedBy string `json:"paused_by"`
}

type RespResumed struct {
	CurrentTurn     string `json:"current_turn"`
	TimeRemainingMs int64  `json:"time_remaining_ms"`
}

type RespErr struct {
	ErrorDetails string `json:"error_details,omitempty"`
	Message      string `json:"message,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{
		ErrorDetails: errorDetails,
		Message:      message,
	}
}

// EventMessage converts a match event into its wire message. The second
// return is false for payload types the transport does not know.
func EventMessage(payload mb.EventPayload) (any, bool) {
	switch p := payload.(type) {
	case mb.PlayerJoined:
		msg := NewMessage[RespPlayerJoined](CodePlayerJoined)
		msg.AddPayload(RespPlayerJoined{Player: p.Player, PlayerCount: p.PlayerCount, State: p.State.String()})
		return msg, true

	case mb.PlayerLeft:
		msg := NewMessage[RespPlayerLeft](CodePlayerLeft)
		msg.AddPayload(RespPlayerLeft{PlayerId: p.PlayerId, RemainingPlayers: p.RemainingPlayers})
		return msg, true

	case mb.FleetAccepted:
		msg := NewMessage[RespSubmitFleet](CodeSubmitFleet)
		msg.AddPayload(RespSubmitFleet{PlayerId: p.PlayerId})
		return msg, true

	case mb.MatchStarted:
		msg := NewMessage[RespMatchStarted](CodeMatchStarted)
		msg.AddPayload(RespMatchStarted{
			CurrentTurn:    p.CurrentTurn,
			HostId:         p.HostId,
			Players:        p.Players,
			TurnDurationMs: millis(p.TurnDuration),
		})
		return msg, true

	case mb.MoveResult:
		msg := NewMessage[RespMoveResult](CodeMoveResult)
		msg.AddPayload(NewRespMoveResult(p))
		return msg, true

	case mb.TurnTimeout:
		msg := NewMessage[RespTurnTimeout](CodeTurnTimeout)
		msg.AddPayload(RespTurnTimeout{CurrentTurn: p.CurrentTurn, TimeRemainingMs: millis(p.TimeRemaining)})
		return msg, true

	case mb.Paused:
		msg := NewMessage[RespPaused](CodePaused)
		msg.AddPayload(RespPaused{PlayerId: p.PlayerId, PausedBy: p.PausedBy})
		return msg, true

	case mb.Resumed:
		msg := NewMessage[RespResumed](CodeResumed)
		msg.AddPayload(RespResumed{CurrentTurn: p.CurrentTurn, TimeRemainingMs: millis(p.TimeRemaining)})
		return msg, true

	default:
		return nil, false
	}
}

func NewRespMoveResult(p mb.MoveResult) RespMoveResult {
	return RespMoveResult{
		PlayerId:        p.PlayerId,
		Row:             p.Row,
		Col:             p.Col,
		Hit:             p.Hit,
		SunkShip:        p.SunkShip,
		CurrentTurn:     p.CurrentTurn,
		GameOver:        p.GameOver,
		Winner:          p.Winner,
		TimeRemainingMs: millis(p.TimeRemaining),
	}
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
