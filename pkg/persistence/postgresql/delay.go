package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/google/uuid"
)

// DelayRepository handles delay-ledger database operations.
type DelayRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Upsert replaces any existing entry for the same (course, workflow)
// pair. Global entries (no workflow) conflict on the partial unique
// index, per-workflow entries on the composite one.
func (r *DelayRepository) Upsert(ctx context.Context, entry *models.DelayEntry) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate delay entry ID: %w", err)
		}

		entry.ID = id.String()
	}

	var (
		query string
		args  []any
	)

	if entry.Global() {
		query = `
			INSERT INTO delay_entries (id, course_id, workflow_id, delayed_until)
			VALUES ($1, $2, NULL, $3)
			ON CONFLICT (course_id) WHERE workflow_id IS NULL
				DO UPDATE SET delayed_until = EXCLUDED.delayed_until
		`
		args = []any{entry.ID, entry.CourseID, entry.DelayedUntil}
	} else {
		query = `
			INSERT INTO delay_entries (id, course_id, workflow_id, delayed_until)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (course_id, workflow_id)
				DO UPDATE SET delayed_until = EXCLUDED.delayed_until
		`
		args = []any{entry.ID, entry.CourseID, entry.WorkflowID, entry.DelayedUntil}
	}

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert delay entry: %w", err)
	}

	return nil
}

func (r *DelayRepository) GlobalDelayedUntil(ctx context.Context, courseID int64) (time.Time, error) {
	var delayedUntil time.Time

	err := r.db.QueryRowContext(ctx,
		"SELECT delayed_until FROM delay_entries WHERE course_id = $1 AND workflow_id IS NULL", courseID,
	).Scan(&delayedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to query global delay: %w", err)
	}

	return delayedUntil, nil
}

func (r *DelayRepository) WorkflowDelayedUntil(ctx context.Context, courseID int64, workflowID string) (time.Time, error) {
	var delayedUntil time.Time

	err := r.db.QueryRowContext(ctx,
		"SELECT delayed_until FROM delay_entries WHERE course_id = $1 AND workflow_id = $2", courseID, workflowID,
	).Scan(&delayedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to query workflow delay: %w", err)
	}

	return delayedUntil, nil
}

func (r *DelayRepository) GloballyDelayedCourses(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT course_id FROM delay_entries WHERE workflow_id IS NULL AND delayed_until > $1 ORDER BY course_id", now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query globally delayed courses: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	return scanCourseIDs(rows)
}

func (r *DelayRepository) DelayedCoursesForWorkflow(ctx context.Context, workflowID string, now time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT course_id FROM delay_entries WHERE workflow_id = $1 AND delayed_until > $2 ORDER BY course_id", workflowID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query delayed courses for workflow: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	return scanCourseIDs(rows)
}

func (r *DelayRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM delay_entries WHERE delayed_until <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired delay entries: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}

	return removed, nil
}
