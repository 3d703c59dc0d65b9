package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/jackc/pgx/v5"
)

const schema = `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		run_id      uuid PRIMARY KEY,
		dataset     text        NOT NULL,
		started_at  timestamptz NOT NULL,
		finished_at timestamptz NOT NULL,
		output_path text        NOT NULL,
		row_count   integer     NOT NULL
	);
	CREATE TABLE IF NOT EXISTS crawl_rows (
		run_id   uuid    NOT NULL REFERENCES crawl_runs (run_id) ON DELETE CASCADE,
		position integer NOT NULL,
		cells    text[]  NOT NULL,
		PRIMARY KEY (run_id, position)
	);
`

// EnsureSchema creates the archive tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create archive tables: %w", err)
	}

	return nil
}

// SaveRun stores the run summary and all of its rows in one transaction.
// Rows keep their collection order in the position column.
func (r *Repository) SaveRun(ctx context.Context, run models.RunRecord, rows []models.Row) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO crawl_runs (run_id, dataset, started_at, finished_at, output_path, row_count)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err = tx.Exec(ctx, query, run.ID, run.Dataset, run.StartedAt, run.FinishedAt, run.OutputPath, run.RowCount)
	if err != nil {
		r.rollback(ctx, tx)
		return fmt.Errorf("failed to insert run: %w", err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"crawl_rows"},
		[]string{"run_id", "position", "cells"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{run.ID, i + 1, []string(rows[i])}, nil
		}),
	)
	if err != nil {
		r.rollback(ctx, tx)
		return fmt.Errorf("failed to copy rows: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	r.log.DebugContext(ctx, "Run archived", "run", run.ID, "rows", copied)

	return nil
}

// RecentRuns returns the latest archived runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	var runs []models.RunRecord
	query := `
		SELECT run_id::text, dataset, started_at, finished_at, output_path, row_count
		FROM crawl_runs
		ORDER BY started_at DESC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run models.RunRecord
		if errScan := rows.Scan(
			&run.ID, &run.Dataset, &run.StartedAt, &run.FinishedAt, &run.OutputPath, &run.RowCount,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan run: %w", errScan)
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return runs, nil
}

func (r *Repository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to roll back transaction", "error", err)
	}
}
