package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/types"
)

// RecordFillRun stores the outcome of a fill in the audit log
func (db *DB) RecordFillRun(ctx context.Context, candidateID string, outcome types.Outcome) error {
	var (
		filled, eligible int
		durationMs       int64
		fieldsJSON       []byte
		reason           *string
	)
	if outcome.Report != nil {
		filled = outcome.Report.Filled
		eligible = outcome.Report.Eligible
		durationMs = outcome.Report.Duration.Milliseconds()

		var err error
		fieldsJSON, err = json.Marshal(outcome.Report.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal field results: %w", err)
		}
	}
	if outcome.Reason != "" {
		reason = &outcome.Reason
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO fill_runs (id, candidate_id, state, filled, eligible, reason, duration_ms, fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		outcome.RunID, candidateID, string(outcome.State), filled, eligible, reason, durationMs, fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record fill run: %w", err)
	}
	return nil
}

// ListFillRuns retrieves recent fill runs, optionally for one candidate
func (db *DB) ListFillRuns(ctx context.Context, candidateID string, limit int) ([]FillRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, candidate_id, state, filled, eligible, reason, duration_ms, fields, created_at
		FROM fill_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if candidateID != "" {
		query += fmt.Sprintf(" AND candidate_id = $%d", argNum)
		args = append(args, candidateID)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fill runs: %w", err)
	}
	defer rows.Close()

	var runs []FillRun
	for rows.Next() {
		var run FillRun
		var fieldsJSON []byte
		if err := rows.Scan(&run.ID, &run.CandidateID, &run.State, &run.Filled, &run.Eligible,
			&run.Reason, &run.DurationMs, &fieldsJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fill run: %w", err)
		}
		if fieldsJSON != nil {
			_ = json.Unmarshal(fieldsJSON, &run.Fields)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list fill runs: %w", err)
	}
	return runs, nil
}

// DeleteFillRun removes one audit entry
func (db *DB) DeleteFillRun(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM fill_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fill run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("fill run not found: %s", id)
	}
	return nil
}
