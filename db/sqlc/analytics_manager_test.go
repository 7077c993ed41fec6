package sqlc

import (
	"context"
	"database/sql"
	"encoding/json"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/require"
)

var testServerIp = pqtype.Inet{
	IPNet: net.IPNet{IP: net.IPv4(10, 0, 0, 7).To4(), Mask: net.CIDRMask(32, 32)},
	Valid: true,
}

func newMockQueries(t *testing.T) (*Queries, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestAnalyticsManager(t *testing.T) {
	q, mock := newMockQueries(t)
	analytics := NewAnalyticsManager(q, testServerIp)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO game_server_analytics (server_ip, matches_created)`)).
		WithArgs(testServerIp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, analytics.IncrementMatchesCreatedCount(ctx))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO game_server_analytics (server_ip, matches_finished)`)).
		WithArgs(testServerIp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, analytics.IncrementMatchesFinishedCount(ctx))

	mock.ExpectQuery(`SELECT matches_created FROM game_server_analytics WHERE server_ip = \$1`).
		WithArgs(testServerIp).
		WillReturnRows(sqlmock.NewRows([]string{"matches_created"}).AddRow(3))
	created, err := analytics.GetMatchesCreatedCount(ctx)
	require.NoError(t, err)
	if created != 3 {
		t.Fatalf("expected number of created matches: %d\tgot: %d", 3, created)
	}

	mock.ExpectQuery(`SELECT matches_finished FROM game_server_analytics WHERE server_ip = \$1`).
		WithArgs(testServerIp).
		WillReturnError(sql.ErrNoRows)
	_, err = analytics.GetMatchesFinishedCount(ctx)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchArchiveQueries(t *testing.T) {
	q, mock := newMockQueries(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completedAt := createdAt.Add(time.Minute * 7)
	participants := json.RawMessage(`[{"id":"p1"}]`)

	params := InsertMatchArchiveParams{
		MatchID:         "m1",
		MatchName:       "Game m1",
		Participants:    participants,
		WinnerID:        sql.NullString{String: "p1", Valid: true},
		WinnerName:      sql.NullString{String: "Alice", Valid: true},
		DurationSeconds: 420,
		TotalMoves:      33,
		FinalState:      "finished",
		Completed:       true,
		CreatedAt:       createdAt,
		CompletedAt:     completedAt,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO match_archive`)).
		WithArgs("m1", "Game m1", participants, params.WinnerID, params.WinnerName,
			int64(420), int32(33), "finished", true, createdAt, completedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, q.InsertMatchArchive(ctx, params))

	columns := []string{"id", "match_id", "match_name", "participants", "winner_id", "winner_name",
		"duration_seconds", "total_moves", "final_state", "completed", "created_at", "completed_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM match_archive`)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "m1", "Game m1", []byte(participants), "p1", "Alice", 420, 33, "finished", true, createdAt, completedAt).
			AddRow(2, "m2", "Game m2", []byte(`[]`), nil, nil, 12, 0, "abandoned", false, createdAt, completedAt))

	rows, err := q.ListMatchArchives(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Alice", rows[0].WinnerName.String)
	require.False(t, rows[1].WinnerID.Valid)
	require.Equal(t, int32(0), rows[1].TotalMoves)

	require.NoError(t, mock.ExpectationsWereMet())
}
