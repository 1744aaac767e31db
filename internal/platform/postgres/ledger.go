package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

// Ledger records the outcome of every generated or skipped portrait.
type Ledger struct {
	db DBTX
}

// NewLedger creates a Ledger.
func NewLedger(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// RecordGeneration inserts one ledger entry.
func (l *Ledger) RecordGeneration(ctx context.Context, rec domain.GenerationRecord) error {
	query := `
		INSERT INTO generations
			(id, subject, style, file, attempts, passed, skipped, overall_score, error_message, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10)
	`
	_, err := l.db.ExecContext(ctx, query,
		rec.ID,
		rec.Subject,
		string(rec.Style),
		rec.File,
		rec.Attempts,
		rec.Passed,
		rec.Skipped,
		rec.OverallScore,
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to record generation",
			"subject", rec.Subject,
			"style", rec.Style,
			"error", err)
		return fmt.Errorf("failed to record generation: %w", MapError(err))
	}
	return nil
}

// History returns the most recent ledger entries for a subject, newest first.
func (l *Ledger) History(ctx context.Context, subject string, limit int) ([]domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, subject, style, file, attempts, passed, skipped, overall_score, error_message, created_at
		FROM generations
		WHERE subject = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := l.db.QueryContext(ctx, query, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation history: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records := []domain.GenerationRecord{}
	for rows.Next() {
		var (
			rec    domain.GenerationRecord
			style  string
			file   sql.NullString
			errMsg sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Subject,
			&style,
			&file,
			&rec.Attempts,
			&rec.Passed,
			&rec.Skipped,
			&rec.OverallScore,
			&errMsg,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		rec.Style = domain.Style(style)
		rec.File = file.String
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation rows: %w", err)
	}
	return records, nil
}
