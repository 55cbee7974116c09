package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Connect(context.Background(), filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConnectRequiresDirectory(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestConnectIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := Connect(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Connect(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestLogQueries(t *testing.T) {
	ctx := context.Background()
	q := New(openTestDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, session := range []string{"a", "b", "a"} {
		_, err := q.CreateLog(ctx, CreateLogParams{
			ID:        string(rune('x' + i)),
			SessionID: sql.NullString{String: session, Valid: true},
			Timestamp: base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339Nano),
			Level:     "info",
			Message:   "entry",
		})
		require.NoError(t, err)
	}

	created, err := q.CreateLog(ctx, CreateLogParams{
		ID:         "nosession",
		Timestamp:  base.Add(-time.Hour).Format(time.RFC3339Nano),
		Level:      "warn",
		Message:    "orphan",
		Attributes: sql.NullString{String: `{"k":"v"}`, Valid: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.CreatedAt)
	assert.False(t, created.SessionID.Valid)

	all, err := q.ListAllLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "z", all[0].ID, "newest first")

	limited, err := q.ListAllLogs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bySession, err := q.ListLogsBySession(ctx, sql.NullString{String: "a", Valid: true})
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	assert.Equal(t, "x", bySession[0].ID, "oldest first")

	n, err := q.DeleteLogsBefore(ctx, base.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
