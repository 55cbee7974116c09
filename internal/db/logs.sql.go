package db

import (
	"context"
	"database/sql"
)

const createLog = `-- name: CreateLog :one
INSERT INTO logs (
    id,
    session_id,
    timestamp,
    level,
    message,
    attributes
) VALUES (
    ?, ?, ?, ?, ?, ?
) RETURNING id, session_id, timestamp, level, message, attributes, created_at
`

type CreateLogParams struct {
	ID         string         `json:"id"`
	SessionID  sql.NullString `json:"session_id"`
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes sql.NullString `json:"attributes"`
}

func (q *Queries) CreateLog(ctx context.Context, arg CreateLogParams) (Log, error) {
	row := q.db.QueryRowContext(ctx, createLog,
		arg.ID,
		arg.SessionID,
		arg.Timestamp,
		arg.Level,
		arg.Message,
		arg.Attributes,
	)
	var i Log
	err := row.Scan(
		&i.ID,
		&i.SessionID,
		&i.Timestamp,
		&i.Level,
		&i.Message,
		&i.Attributes,
		&i.CreatedAt,
	)
	return i, err
}

const listAllLogs = `-- name: ListAllLogs :many
SELECT id, session_id, timestamp, level, message, attributes, created_at FROM logs
ORDER BY timestamp DESC
LIMIT ?
`

func (q *Queries) ListAllLogs(ctx context.Context, limit int64) ([]Log, error) {
	rows, err := q.db.QueryContext(ctx, listAllLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

const listLogsBySession = `-- name: ListLogsBySession :many
SELECT id, session_id, timestamp, level, message, attributes, created_at FROM logs
WHERE session_id = ?
ORDER BY timestamp ASC
`

func (q *Queries) ListLogsBySession(ctx context.Context, sessionID sql.NullString) ([]Log, error) {
	rows, err := q.db.QueryContext(ctx, listLogsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

const deleteLogsBefore = `-- name: DeleteLogsBefore :execrows
DELETE FROM logs
WHERE timestamp < ?
`

func (q *Queries) DeleteLogsBefore(ctx context.Context, timestamp string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLogsBefore, timestamp)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanLogs(rows *sql.Rows) ([]Log, error) {
	items := []Log{}
	for rows.Next() {
		var i Log
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.Timestamp,
			&i.Level,
			&i.Message,
			&i.Attributes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
