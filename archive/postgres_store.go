package archive

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/saeidalz13/battleship-arena/db/sqlc"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

// PostgresStore keeps one match_archive row per record. Participants are
// stored as JSONB.
type PostgresStore struct {
	q sqlc.Querier
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(q sqlc.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (p *PostgresStore) Append(ctx context.Context, rec mb.ArchiveRecord) error {
	participants, err := json.Marshal(rec.Participants)
	if err != nil {
		return err
	}

	params := sqlc.InsertMatchArchiveParams{
		MatchID:         rec.MatchId,
		MatchName:       rec.MatchName,
		Participants:    participants,
		WinnerName:      sql.NullString{String: rec.WinnerName, Valid: rec.WinnerName != ""},
		DurationSeconds: rec.DurationSeconds,
		TotalMoves:      int32(rec.TotalMoves),
		FinalState:      rec.FinalState,
		Completed:       rec.Completed,
		CreatedAt:       rec.CreatedAt,
		CompletedAt:     rec.CompletedAt,
	}
	if rec.WinnerId != nil {
		params.WinnerID = sql.NullString{String: *rec.WinnerId, Valid: true}
	}

	return p.q.InsertMatchArchive(ctx, params)
}

func (p *PostgresStore) List(ctx context.Context) ([]mb.ArchiveRecord, error) {
	rows, err := p.q.ListMatchArchives(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]mb.ArchiveRecord, 0, len(rows))
	for _, row := range rows {
		rec := mb.ArchiveRecord{
			MatchId:         row.MatchID,
			MatchName:       row.MatchName,
			WinnerName:      row.WinnerName.String,
			DurationSeconds: row.DurationSeconds,
			TotalMoves:      int(row.TotalMoves),
			CreatedAt:       row.CreatedAt,
			CompletedAt:     row.CompletedAt,
			FinalState:      row.FinalState,
			Completed:       row.Completed,
		}
		if row.WinnerID.Valid {
			winnerId := row.WinnerID.String
			rec.WinnerId = &winnerId
		}
		if err := json.Unmarshal(row.Participants, &rec.Participants); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
