// Package store persists completed timeline builds to PostgreSQL: one row
// per run with its stats and warnings as JSONB, plus one row per event. Reads
// back the recent run history for the serve-mode API.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/footprintlab/timeline-engine/internal/pipeline"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
	"github.com/footprintlab/timeline-engine/pkg/postgres"
	"github.com/footprintlab/timeline-engine/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS timeline_runs (
	id            BIGSERIAL PRIMARY KEY,
	target        TEXT        NOT NULL,
	generated_at  TIMESTAMPTZ NOT NULL,
	event_count   INT         NOT NULL,
	warning_count INT         NOT NULL,
	stats         JSONB       NOT NULL,
	warnings      JSONB       NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS timeline_events (
	run_id     BIGINT      NOT NULL REFERENCES timeline_runs(id) ON DELETE CASCADE,
	event_id   TEXT        NOT NULL,
	platform   TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	payload    JSONB       NOT NULL,
	PRIMARY KEY (run_id, event_id)
);

CREATE INDEX IF NOT EXISTS timeline_runs_target_idx
	ON timeline_runs (target, generated_at DESC);
CREATE INDEX IF NOT EXISTS timeline_events_occurred_idx
	ON timeline_events (run_id, occurred_at);
`

// psql builds queries with $n placeholders for lib/pq.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RunSummary is one row of the run history.
type RunSummary struct {
	ID           int64     `json:"id"`
	Target       string    `json:"target"`
	GeneratedAt  time.Time `json:"generated_at"`
	EventCount   int       `json:"event_count"`
	WarningCount int       `json:"warning_count"`
}

// PostgresStore persists runs through a pooled lib/pq connection.
type PostgresStore struct {
	client *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

// New creates the store and ensures the schema exists.
func New(ctx context.Context, client *postgres.Client) (*PostgresStore, error) {
	s := &PostgresStore{
		client: client,
		logger: slog.Default().With("component", "store"),
	}
	if _, err := client.DB.ExecContext(ctx, schema); err != nil {
		return nil, pkgerrors.Newf("store", pkgerrors.ErrStoreFailure, "ensuring schema: %v", err)
	}
	return s, nil
}

// Ping verifies database connectivity for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// SaveRun writes the run row and its events in one transaction. Transient
// failures are retried with backoff before the error is surfaced.
func (s *PostgresStore) SaveRun(ctx context.Context, result *pipeline.Result) error {
	err := resilience.Retry(ctx, "store-save-run", s.retry, func() error {
		return s.client.InTx(ctx, func(tx *sql.Tx) error {
			runID, err := s.insertRun(ctx, tx, result)
			if err != nil {
				return err
			}
			return s.insertEvents(ctx, tx, runID, result.Events)
		})
	})
	if err != nil {
		return pkgerrors.Newf("store", pkgerrors.ErrStoreFailure, "saving run for %s: %v", result.Target, err)
	}
	s.logger.Info("run persisted", "target", result.Target, "events", len(result.Events))
	return nil
}

func (s *PostgresStore) insertRun(ctx context.Context, tx *sql.Tx, result *pipeline.Result) (int64, error) {
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshaling stats: %w", err)
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []timeline.Warning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("marshaling warnings: %w", err)
	}

	query, args, err := psql.
		Insert("timeline_runs").
		Columns("target", "generated_at", "event_count", "warning_count", "stats", "warnings").
		Values(result.Target, result.GeneratedAt, len(result.Events), len(result.Warnings), statsJSON, warningsJSON).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building run insert: %w", err)
	}

	var runID int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&runID); err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return runID, nil
}

func (s *PostgresStore) insertEvents(ctx context.Context, tx *sql.Tx, runID int64, events []timeline.Event) error {
	if len(events) == 0 {
		return nil
	}
	builder := psql.
		Insert("timeline_events").
		Columns("run_id", "event_id", "platform", "category", "occurred_at", "payload")
	for i := range events {
		payload, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", events[i].ID, err)
		}
		builder = builder.Values(runID, events[i].ID, string(events[i].Platform), string(events[i].Category), events[i].Timestamp, payload)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building event insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting events: %w", err)
	}
	return nil
}

// RecentRuns returns the latest run summaries for a target, newest first.
func (s *PostgresStore) RecentRuns(ctx context.Context, target string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := psql.
		Select("id", "target", "generated_at", "event_count", "warning_count").
		From("timeline_runs").
		Where(sq.Eq{"target": target}).
		OrderBy("generated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building run query: %w", err)
	}

	rows, err := s.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Newf("store", pkgerrors.ErrStoreFailure, "listing runs: %v", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Target, &r.GeneratedAt, &r.EventCount, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEvents loads the persisted events of one run in chronological order.
func (s *PostgresStore) RunEvents(ctx context.Context, runID int64) ([]timeline.Event, error) {
	query, args, err := psql.
		Select("payload").
		From("timeline_events").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("occurred_at", "platform", "event_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building event query: %w", err)
	}

	rows, err := s.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Newf("store", pkgerrors.ErrStoreFailure, "loading run %d events: %v", runID, err)
	}
	defer rows.Close()

	var events []timeline.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		var ev timeline.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decoding event payload: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
