package battleship

import "time"

// Archiver takes ownership of a finalized record. Archive must return
// quickly; it is called with the match mutex held.
type Archiver interface {
	Archive(rec ArchiveRecord)
}

type nopArchiver struct{}

func (nopArchiver) Archive(ArchiveRecord) {}

type ArchiveParticipant struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	PlayerNumber int    `json:"player_number"`
	Hits         int    `json:"hits"`
	Misses       int    `json:"misses"`
	Accuracy     int    `json:"accuracy"`
}

// ArchiveRecord is the immutable summary of one finished or abandoned
// match.
type ArchiveRecord struct {
	MatchId         string               `json:"match_id"`
	MatchName       string               `json:"match_name"`
	Participants    []ArchiveParticipant `json:"participants"`
	WinnerId        *string              `json:"winner_id"`
	WinnerName      string               `json:"winner_name,omitempty"`
	DurationSeconds int64                `json:"duration_seconds"`
	TotalMoves      int                  `json:"total_moves"`
	CreatedAt       time.Time            `json:"created_at"`
	CompletedAt     time.Time            `json:"completed_at"`
	FinalState      string               `json:"final_state"`
	Completed       bool                 `json:"completed"`
}
