// Package diagnostics persists per-request diagnostics bundles to Postgres.
package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/models"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Recorder inserts one row per answered question.
type Recorder struct {
	db     *sql.DB
	table  string
	logger Logger
}

func NewRecorder(db *sql.DB, table string, log Logger) (*Recorder, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid diagnostics table name %q", table)
	}
	return &Recorder{db: db, table: table, logger: log}, nil
}

// EnsureSchema creates the table when it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			request_id            UUID PRIMARY KEY,
			query                 TEXT NOT NULL,
			detected_entity       TEXT NOT NULL DEFAULT '',
			also_detected         TEXT[] NOT NULL DEFAULT '{}',
			intent                TEXT NOT NULL,
			mentioned_entities    TEXT[] NOT NULL DEFAULT '{}',
			relevance_score       DOUBLE PRECISION NOT NULL,
			enhancement_rationale TEXT NOT NULL DEFAULT '',
			quality_level         TEXT NOT NULL DEFAULT '',
			attempts              INTEGER NOT NULL,
			outcome               TEXT NOT NULL,
			chunks_retrieved      INTEGER NOT NULL,
			created_at            TIMESTAMPTZ NOT NULL
		)`, pq.QuoteIdentifier(r.table)))
	if err != nil {
		return errors.NewDiagnosticsWriteFailedError(fmt.Errorf("failed to create %s: %w", r.table, err))
	}
	r.logger.Info("diagnostics table ready", map[string]interface{}{"table": r.table})
	return nil
}

// Record inserts d. The answer itself is not stored.
func (r *Recorder) Record(ctx context.Context, d models.Diagnostics) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			request_id, query, detected_entity, also_detected, intent,
			mentioned_entities, relevance_score, enhancement_rationale,
			quality_level, attempts, outcome, chunks_retrieved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, pq.QuoteIdentifier(r.table)),
		d.RequestID,
		d.Query,
		d.DetectedEntity,
		pq.Array(nonNil(d.AlsoDetected)),
		d.Intent,
		pq.Array(nonNil(d.MentionedEntities)),
		d.RelevanceScore,
		d.EnhancementRationale,
		d.QualityLevel,
		d.Attempts,
		d.Outcome,
		d.ChunksRetrieved,
		createdAt,
	)
	if err != nil {
		r.logger.Error("failed to record diagnostics", map[string]interface{}{
			"requestId": d.RequestID,
			"error":     err.Error(),
		})
		return errors.NewDiagnosticsWriteFailedError(err).WithMetadata("requestId", d.RequestID)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
