package battleship

import "time"

// EventSink receives match events. Publish is called with the match
// mutex held and must not block.
type EventSink interface {
	Publish(ev Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// Event is one outbound notification. Recipients are player ids; the
// match fills in every participant still seated unless the event is
// meant for a subset.
type Event struct {
	MatchId    string
	Recipients []string
	Payload    EventPayload
}

// EventPayload is implemented by each event variant below. The
// transport switches on the concrete type.
type EventPayload interface {
	eventPayload()
}

type PlayerInfo struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	PlayerNumber int    `json:"player_number"`
}

type PlayerJoined struct {
	Player      PlayerInfo
	PlayerCount int
	State       MatchState
}

type PlayerLeft struct {
	PlayerId         string
	RemainingPlayers int
}

// FleetAccepted goes to the submitting player only.
type FleetAccepted struct {
	PlayerId string
}

type MatchStarted struct {
	CurrentTurn  string
	HostId       string
	Players      []PlayerInfo
	TurnDuration time.Duration
}

type MoveResult struct {
	PlayerId      string
	Row           int
	Col           int
	Hit           bool
	SunkShip      *Ship
	CurrentTurn   string
	GameOver      bool
	Winner        string
	TimeRemaining time.Duration
}

type TurnTimeout struct {
	CurrentTurn   string
	TimeRemaining time.Duration
}

type Paused struct {
	PlayerId string
	PausedBy string
}

type Resumed struct {
	CurrentTurn   string
	TimeRemaining time.Duration
}

func (PlayerJoined) eventPayload()  {}
func (PlayerLeft) eventPayload()    {}
func (FleetAccepted) eventPayload() {}
func (MatchStarted) eventPayload()  {}
func (MoveResult) eventPayload()    {}
func (TurnTimeout) eventPayload()   {}
func (Paused) eventPayload()        {}
func (Resumed) eventPayload()       {}
