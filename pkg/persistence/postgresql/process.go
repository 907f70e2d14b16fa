package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProcessRepository handles live-process database operations.
type ProcessRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const processColumns = `
	id
  , workflow_id
  , course_id
  , step_index
  , waiting
  , time_step_changed
  , created_at
`

func (r *ProcessRepository) GetAll(ctx context.Context) ([]*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes ORDER BY created_at, course_id`

	return r.queryProcesses(ctx, query)
}

func (r *ProcessRepository) GetByID(ctx context.Context, id string) (*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE id = $1`

	process, err := scanProcess(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrProcessNotFound
		}

		return nil, fmt.Errorf("failed to scan process: %w", err)
	}

	return process, nil
}

func (r *ProcessRepository) GetByCourse(ctx context.Context, courseID int64) (*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE course_id = $1`

	process, err := scanProcess(r.db.QueryRowContext(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrProcessNotFound
		}

		return nil, fmt.Errorf("failed to scan process: %w", err)
	}

	return process, nil
}

func (r *ProcessRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE workflow_id = $1 ORDER BY course_id`

	return r.queryProcesses(ctx, query, workflowID)
}

func (r *ProcessRepository) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processes WHERE workflow_id = $1", workflowID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count processes: %w", err)
	}

	return count, nil
}

func (r *ProcessRepository) CourseIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT course_id FROM processes ORDER BY course_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query process course ids: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	return scanCourseIDs(rows)
}

// Save inserts or updates in a single statement; the unique index on
// course_id rejects a second live process for the same course.
func (r *ProcessRepository) Save(ctx context.Context, process *models.Process) error {
	if process.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate process ID: %w", err)
		}

		process.ID = id.String()
	}

	if process.CreatedAt.IsZero() {
		process.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO processes (` + processColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			step_index = EXCLUDED.step_index,
			waiting = EXCLUDED.waiting,
			time_step_changed = EXCLUDED.time_step_changed
	`

	_, err := r.db.ExecContext(ctx, query,
		process.ID,
		process.WorkflowID,
		process.CourseID,
		process.StepIndex,
		process.Waiting,
		process.TimeStepChanged,
		process.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return persistence.ErrProcessExists
		}

		return fmt.Errorf("failed to save process: %w", err)
	}

	return nil
}

func (r *ProcessRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM processes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete process: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrProcessNotFound
	}

	return nil
}

func (r *ProcessRepository) queryProcesses(ctx context.Context, query string, args ...any) ([]*models.Process, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	processes := make([]*models.Process, 0)

	for rows.Next() {
		process, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}

		processes = append(processes, process)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processes: %w", err)
	}

	return processes, nil
}

func scanProcess(row rowScanner) (*models.Process, error) {
	var process models.Process

	err := row.Scan(
		&process.ID,
		&process.WorkflowID,
		&process.CourseID,
		&process.StepIndex,
		&process.Waiting,
		&process.TimeStepChanged,
		&process.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &process, nil
}

func scanCourseIDs(rows *sql.Rows) ([]int64, error) {
	ids := make([]int64, 0)

	for rows.Next() {
		var id int64

		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course ids: %w", err)
	}

	return ids, nil
}

// ProcessErrorRepository handles parked process-error database operations.
type ProcessErrorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const processErrorColumns = `
	id
  , course_id
  , workflow_id
  , step_index
  , waiting
  , time_step_changed
  , message
  , trace
  , hash
  , created_at
`

func (r *ProcessErrorRepository) Insert(ctx context.Context, processError *models.ProcessError) error {
	if processError.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate process error ID: %w", err)
		}

		processError.ID = id.String()
	}

	if processError.CreatedAt.IsZero() {
		processError.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO process_errors (` + processErrorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		processError.ID,
		processError.CourseID,
		processError.WorkflowID,
		processError.StepIndex,
		processError.Waiting,
		processError.TimeStepChanged,
		processError.Message,
		processError.Trace,
		processError.Hash,
		processError.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert process error: %w", err)
	}

	return nil
}

func (r *ProcessErrorRepository) GetAll(ctx context.Context) ([]*models.ProcessError, error) {
	query := `SELECT ` + processErrorColumns + ` FROM process_errors ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query process errors: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	processErrors := make([]*models.ProcessError, 0)

	for rows.Next() {
		var processError models.ProcessError

		err := rows.Scan(
			&processError.ID,
			&processError.CourseID,
			&processError.WorkflowID,
			&processError.StepIndex,
			&processError.Waiting,
			&processError.TimeStepChanged,
			&processError.Message,
			&processError.Trace,
			&processError.Hash,
			&processError.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process error: %w", err)
		}

		processErrors = append(processErrors, &processError)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process errors: %w", err)
	}

	return processErrors, nil
}

func (r *ProcessErrorRepository) CourseIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT course_id FROM process_errors ORDER BY course_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query process error course ids: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	return scanCourseIDs(rows)
}

func (r *ProcessErrorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM process_errors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete process error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrProcessErrorNotFound
	}

	return nil
}

// ProcessDataRepository handles per-process scratch data.
type ProcessDataRepository struct {
	db *sql.DB
}

func (r *ProcessDataRepository) Get(ctx context.Context, processID, key string) (string, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM process_data WHERE process_id = $1 AND name = $2", processID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("failed to query process data: %w", err)
	}

	return value, true, nil
}

func (r *ProcessDataRepository) Set(ctx context.Context, processID, key, value string) error {
	query := `
		INSERT INTO process_data (process_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (process_id, name) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := r.db.ExecContext(ctx, query, processID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set process data: %w", err)
	}

	return nil
}

func (r *ProcessDataRepository) DeleteByProcess(ctx context.Context, processID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM process_data WHERE process_id = $1", processID)
	if err != nil {
		return fmt.Errorf("failed to delete process data: %w", err)
	}

	return nil
}
