// Package logging persists slog records as diagnostics and publishes them to
// in-process subscribers.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zerosync-co/ghosttext/internal/db"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
)

type Log struct {
	ID         string
	SessionID  string
	Timestamp  time.Time
	Level      string
	Message    string
	Attributes map[string]string
	CreatedAt  time.Time
}

const EventLogCreated pubsub.EventType = "log_created"

type Service interface {
	pubsub.Subscriber[Log]

	Create(ctx context.Context, entry Log) (Log, error)
	ListBySession(ctx context.Context, sessionID string) ([]Log, error)
	ListAll(ctx context.Context, limit int) ([]Log, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Shutdown()
}

type service struct {
	db     *db.Queries
	broker *pubsub.Broker[Log]
}

func NewService(q *db.Queries) Service {
	return &service{
		db:     q,
		broker: pubsub.NewBroker[Log](),
	}
}

func (s *service) Create(ctx context.Context, entry Log) (Log, error) {
	if entry.Level == "" {
		entry.Level = "info"
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	var attributesJSON sql.NullString
	if len(entry.Attributes) > 0 {
		b, err := json.Marshal(entry.Attributes)
		if err != nil {
			return Log{}, fmt.Errorf("failed to marshal log attributes: %w", err)
		}
		attributesJSON = sql.NullString{String: string(b), Valid: true}
	}

	row, err := s.db.CreateLog(ctx, db.CreateLogParams{
		ID:         uuid.New().String(),
		SessionID:  sql.NullString{String: entry.SessionID, Valid: entry.SessionID != ""},
		Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:      entry.Level,
		Message:    entry.Message,
		Attributes: attributesJSON,
	})
	if err != nil {
		return Log{}, fmt.Errorf("db.CreateLog: %w", err)
	}

	created := fromDBItem(row)
	s.broker.Publish(EventLogCreated, created)
	return created, nil
}

func (s *service) ListBySession(ctx context.Context, sessionID string) ([]Log, error) {
	rows, err := s.db.ListLogsBySession(ctx, sql.NullString{String: sessionID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("db.ListLogsBySession: %w", err)
	}
	return fromDBItems(rows), nil
}

func (s *service) ListAll(ctx context.Context, limit int) ([]Log, error) {
	rows, err := s.db.ListAllLogs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("db.ListAllLogs: %w", err)
	}
	return fromDBItems(rows), nil
}

// Prune deletes entries logged before the given time.
func (s *service) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.db.DeleteLogsBefore(ctx, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("db.DeleteLogsBefore: %w", err)
	}
	return n, nil
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Log] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Shutdown() {
	s.broker.Shutdown()
}

func fromDBItems(rows []db.Log) []Log {
	logs := make([]Log, len(rows))
	for i, row := range rows {
		logs[i] = fromDBItem(row)
	}
	return logs
}

func fromDBItem(item db.Log) Log {
	entry := Log{
		ID:         item.ID,
		SessionID:  item.SessionID.String,
		Level:      item.Level,
		Message:    item.Message,
		Attributes: make(map[string]string),
	}

	if ts, err := time.Parse(time.RFC3339Nano, item.Timestamp); err == nil {
		entry.Timestamp = ts
	} else {
		entry.Timestamp = time.Now()
	}
	if ts, err := time.Parse(time.RFC3339Nano, item.CreatedAt); err == nil {
		entry.CreatedAt = ts
	} else {
		entry.CreatedAt = time.Now()
	}

	if item.Attributes.Valid && item.Attributes.String != "" {
		if err := json.Unmarshal([]byte(item.Attributes.String), &entry.Attributes); err != nil {
			slog.Error("Failed to unmarshal log attributes", "log_id", item.ID, "error", err)
			entry.Attributes = make(map[string]string)
		}
	}
	return entry
}
