package connection

// A request and its direct reply share a code; the reply carries either
// a payload or an error.
const (
	CodeSessionID uint8 = iota
	CodeCreateMatch
	CodeJoinMatch
	CodeSubmitFleet
	CodeFire
	CodePause
	CodeResume
	CodeLeave

	// Broadcasts to every seated player of a match
	CodePlayerJoined
	CodePlayerLeft
	CodeMatchStarted
	CodeMoveResult
	CodeTurnTimeout
	CodePaused
	CodeResumed

	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent
)

type Signal struct {
	Code uint8 `json:"code"`
}

func NewSignal(code uint8) Signal {
	return Signal{Code: code}
}
