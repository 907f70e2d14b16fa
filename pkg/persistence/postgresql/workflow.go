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
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const workflowColumns = `
	id
  , title
  , display_title
  , time_active
  , time_deactive
  , sort_index
  , manual
  , rollback_delay_seconds
  , finish_delay_seconds
  , delay_for_all_workflows
  , include_delayed_courses
  , include_site_course
  , combinator
  , created_at
  , updated_at
`

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at`

	return r.queryWorkflows(ctx, query)
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) GetActiveAutomatic(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE time_active IS NOT NULL AND time_deactive IS NULL AND NOT manual
		ORDER BY sort_index
	`

	return r.queryWorkflows(ctx, query)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	if workflow.Combinator == "" {
		workflow.Combinator = models.CombinatorAnd
	}

	query := `
		INSERT INTO workflows (` + workflowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			display_title = EXCLUDED.display_title,
			time_active = EXCLUDED.time_active,
			time_deactive = EXCLUDED.time_deactive,
			sort_index = EXCLUDED.sort_index,
			manual = EXCLUDED.manual,
			rollback_delay_seconds = EXCLUDED.rollback_delay_seconds,
			finish_delay_seconds = EXCLUDED.finish_delay_seconds,
			delay_for_all_workflows = EXCLUDED.delay_for_all_workflows,
			include_delayed_courses = EXCLUDED.include_delayed_courses,
			include_site_course = EXCLUDED.include_site_course,
			combinator = EXCLUDED.combinator,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Title,
		workflow.DisplayTitle,
		workflow.TimeActive,
		workflow.TimeDeactive,
		workflow.SortIndex,
		workflow.Manual,
		workflow.RollbackDelaySeconds,
		workflow.FinishDelaySeconds,
		workflow.DelayForAllWorkflows,
		workflow.IncludeDelayedCourses,
		workflow.IncludeSiteCourse,
		workflow.Combinator,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) MaxSortIndex(ctx context.Context) (int, error) {
	var maxIndex int

	query := `
		SELECT COALESCE(MAX(sort_index), 0)
		FROM workflows
		WHERE time_active IS NOT NULL AND time_deactive IS NULL AND NOT manual
	`

	err := r.db.QueryRowContext(ctx, query).Scan(&maxIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to query max sort index: %w", err)
	}

	return maxIndex, nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.Title,
		&workflow.DisplayTitle,
		&workflow.TimeActive,
		&workflow.TimeDeactive,
		&workflow.SortIndex,
		&workflow.Manual,
		&workflow.RollbackDelaySeconds,
		&workflow.FinishDelaySeconds,
		&workflow.DelayForAllWorkflows,
		&workflow.IncludeDelayedCourses,
		&workflow.IncludeSiteCourse,
		&workflow.Combinator,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}
