package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create inserts a new run record and returns its ID.
func (r *RunRepo) Create(ctx context.Context, run model.Run) (int64, error) {
	const query = `
		INSERT INTO runs (trigger_source, status, started_at)
		VALUES (?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		string(run.Trigger), string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run insert id: %w", err)
	}
	return id, nil
}

// Finish records the terminal state, counters, and finish time of a run.
func (r *RunRepo) Finish(ctx context.Context, run model.Run) error {
	const query = `
		UPDATE runs SET
			status = ?,
			finished_at = ?,
			creator_count = ?,
			creator_errors = ?,
			row_count = ?,
			error = ?
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		string(run.Status), formatTime(run.FinishedAt),
		run.Creators, run.CreatorErrors, run.Rows, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", run.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %d: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %d: no such run", run.ID)
	}
	return nil
}

// Get returns the run with the given ID, or nil if absent.
func (r *RunRepo) Get(ctx context.Context, id int64) (*model.Run, error) {
	const query = `
		SELECT id, trigger_source, status, started_at, finished_at,
		       creator_count, creator_errors, row_count, error
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}

	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]model.Run, error) {
	const query = `
		SELECT id, trigger_source, status, started_at, finished_at,
		       creator_count, creator_errors, row_count, error
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []model.Run{}
	}
	return runs, nil
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var trigger, status, startedAt, finishedAt string

	err := row.Scan(&run.ID, &trigger, &status, &startedAt, &finishedAt,
		&run.Creators, &run.CreatorErrors, &run.Rows, &run.Error)
	if err != nil {
		return nil, err
	}

	run.Trigger = model.RunTrigger(trigger)
	run.Status = model.RunStatus(status)

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}

	return &run, nil
}
