package error

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every constructor below wraps one of these so the
// transport can classify an error with errors.Is.
var (
	ErrPlacement         = errors.New("invalid ship placement")
	ErrInvalidFleet      = errors.New("invalid fleet")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrDuplicateFire     = errors.New("position already fired at")
	ErrSessionFull       = errors.New("session is full")
	ErrNotHost           = errors.New("only the host can do this")
	ErrNotFound          = errors.New("match not found")
	ErrArchiveWrite      = errors.New("archive write failed")
	ErrOutOfBounds       = errors.New("coordinates out of grid bound")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidState      = errors.New("operation not allowed in current match state")
	ErrNoOpponent        = errors.New("no opponent")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrUnknownSession    = errors.New("session not found")
	ErrAlreadyInMatch    = errors.New("session already belongs to a match")
)

func ErrMatchNotExists(matchId string) error {
	return fmt.Errorf("%w: match with this id does not exist, id: %s", ErrNotFound, matchId)
}

func ErrPlayerNotExist(playerId string) error {
	return fmt.Errorf("%w: player with this id does not exist, id: %s", ErrPlayerNotFound, playerId)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("%w: id: %s", ErrUnknownSession, sessionId)
}

func ErrXorYOutOfGridBound(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrOutOfBounds, row, col)
}

func ErrAttackPositionAlreadyFilled(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrDuplicateFire, row, col)
}

func ErrShipOutOfBound(ship string, row, col int) error {
	return fmt.Errorf("%w: %s leaves the grid at row: %d col: %d", ErrPlacement, ship, row, col)
}

func ErrShipNotContiguous(ship string) error {
	return fmt.Errorf("%w: %s positions are not contiguous in one axis", ErrPlacement, ship)
}

func ErrShipOrientationMismatch(ship, orientation string) error {
	return fmt.Errorf("%w: %s positions do not match orientation %s", ErrPlacement, ship, orientation)
}

func ErrShipOverlap(ship string, row, col int) error {
	return fmt.Errorf("%w: %s overlaps another ship at row: %d col: %d", ErrPlacement, ship, row, col)
}

func ErrInvalidShipSize(ship string, size int) error {
	return fmt.Errorf("%w: %s has invalid size %d", ErrPlacement, ship, size)
}

func ErrFleetSizes(got []int) error {
	return fmt.Errorf("%w: ship sizes must be exactly [5 4 3 3 2], got %v", ErrInvalidFleet, got)
}

func ErrNotTurnForAttacker(playerId string) error {
	return fmt.Errorf("%w: player id: %s", ErrNotYourTurn, playerId)
}

func ErrMatchFull(matchId string) error {
	return fmt.Errorf("%w: match %s is not accepting players", ErrSessionFull, matchId)
}

func ErrOnlyHost(playerId, action string) error {
	return fmt.Errorf("%w: player %s cannot %s", ErrNotHost, playerId, action)
}

func ErrWrongMatchState(action, state string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, action, state)
}

func ErrArchiveFailed(matchId string, err error) error {
	return fmt.Errorf("%w: match %s: %w", ErrArchiveWrite, matchId, err)
}

func ErrSessionNotInMatch(sessionId string) error {
	return fmt.Errorf("%w: session %s has not created or joined a match", ErrPlayerNotFound, sessionId)
}
