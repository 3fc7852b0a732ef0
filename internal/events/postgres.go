// internal/events/postgres.go
package events

import (
	"context"
	"database/sql"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/models"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS recommendation_events (
	id SERIAL PRIMARY KEY,
	event_id TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	endpoint TEXT NOT NULL,
	preferences_json TEXT NOT NULL,
	candidate_count INTEGER NOT NULL,
	returned_count INTEGER NOT NULL
)`

const insertEvent = `
INSERT INTO recommendation_events
	(event_id, created_at, endpoint, preferences_json, candidate_count, returned_count)
VALUES ($1, $2, $3, $4, $5, $6)`

type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the events table when it does not exist yet.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createEventsTable); err != nil {
		return errors.NewQueryExecutionFailedError("create_recommendation_events", err)
	}
	return nil
}

func (s *PostgresSink) Record(ctx context.Context, event models.RecommendationEvent) error {
	_, err := s.db.ExecContext(ctx, insertEvent,
		event.ID,
		event.CreatedAt,
		event.Endpoint,
		event.PreferencesJSON,
		event.CandidateCount,
		event.ReturnedCount,
	)
	if err != nil {
		return errors.NewEventLogFailedError(s.Name(), err)
	}
	return nil
}
