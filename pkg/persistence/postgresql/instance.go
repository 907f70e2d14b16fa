package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/google/uuid"
)

// TriggerRepository handles trigger-instance database operations.
type TriggerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const triggerColumns = `
	id
  , workflow_id
  , subplugin
  , instance_name
  , sort_index
`

func (r *TriggerRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.TriggerInstance, error) {
	query := `
		SELECT ` + triggerColumns + `
		FROM trigger_instances
		WHERE workflow_id = $1
		ORDER BY sort_index
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trigger instances: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.TriggerInstance, 0)

	for rows.Next() {
		var instance models.TriggerInstance

		err := rows.Scan(
			&instance.ID,
			&instance.WorkflowID,
			&instance.Subplugin,
			&instance.InstanceName,
			&instance.SortIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trigger instance: %w", err)
		}

		instances = append(instances, &instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trigger instances: %w", err)
	}

	return instances, nil
}

func (r *TriggerRepository) GetByID(ctx context.Context, id string) (*models.TriggerInstance, error) {
	query := `SELECT ` + triggerColumns + ` FROM trigger_instances WHERE id = $1`

	var instance models.TriggerInstance

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&instance.ID,
		&instance.WorkflowID,
		&instance.Subplugin,
		&instance.InstanceName,
		&instance.SortIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to scan trigger instance: %w", err)
	}

	return &instance, nil
}

func (r *TriggerRepository) Save(ctx context.Context, instance *models.TriggerInstance) error {
	if instance.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate trigger instance ID: %w", err)
		}

		instance.ID = id.String()
	}

	query := `
		INSERT INTO trigger_instances (` + triggerColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			instance_name = EXCLUDED.instance_name,
			sort_index = EXCLUDED.sort_index
	`

	_, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.WorkflowID,
		instance.Subplugin,
		instance.InstanceName,
		instance.SortIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to save trigger instance: %w", err)
	}

	return nil
}

func (r *TriggerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM trigger_instances WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete trigger instance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrInstanceNotFound
	}

	return nil
}

func (r *TriggerRepository) DeleteByWorkflow(ctx context.Context, workflowID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM trigger_instances WHERE workflow_id = $1", workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete trigger instances: %w", err)
	}

	return nil
}

// StepRepository handles step-instance database operations.
type StepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const stepColumns = `
	id
  , workflow_id
  , subplugin
  , instance_name
  , sort_index
  , rollback_to
`

func (r *StepRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.StepInstance, error) {
	query := `
		SELECT ` + stepColumns + `
		FROM step_instances
		WHERE workflow_id = $1
		ORDER BY sort_index
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step instances: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.StepInstance, 0)

	for rows.Next() {
		instance, err := scanStepInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step instance: %w", err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step instances: %w", err)
	}

	return instances, nil
}

func (r *StepRepository) GetByID(ctx context.Context, id string) (*models.StepInstance, error) {
	query := `SELECT ` + stepColumns + ` FROM step_instances WHERE id = $1`

	instance, err := scanStepInstance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to scan step instance: %w", err)
	}

	return instance, nil
}

func (r *StepRepository) GetAt(ctx context.Context, workflowID string, sortIndex int) (*models.StepInstance, error) {
	query := `SELECT ` + stepColumns + ` FROM step_instances WHERE workflow_id = $1 AND sort_index = $2`

	instance, err := scanStepInstance(r.db.QueryRowContext(ctx, query, workflowID, sortIndex))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, fmt.Errorf("failed to scan step instance: %w", err)
	}

	return instance, nil
}

func (r *StepRepository) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM step_instances WHERE workflow_id = $1", workflowID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count step instances: %w", err)
	}

	return count, nil
}

func (r *StepRepository) Save(ctx context.Context, instance *models.StepInstance) error {
	if instance.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step instance ID: %w", err)
		}

		instance.ID = id.String()
	}

	query := `
		INSERT INTO step_instances (` + stepColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			instance_name = EXCLUDED.instance_name,
			sort_index = EXCLUDED.sort_index,
			rollback_to = EXCLUDED.rollback_to
	`

	_, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.WorkflowID,
		instance.Subplugin,
		instance.InstanceName,
		instance.SortIndex,
		instance.RollbackTo,
	)
	if err != nil {
		return fmt.Errorf("failed to save step instance: %w", err)
	}

	return nil
}

func (r *StepRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM step_instances WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete step instance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrInstanceNotFound
	}

	return nil
}

func (r *StepRepository) DeleteByWorkflow(ctx context.Context, workflowID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM step_instances WHERE workflow_id = $1", workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete step instances: %w", err)
	}

	return nil
}

func scanStepInstance(row rowScanner) (*models.StepInstance, error) {
	var (
		instance   models.StepInstance
		rollbackTo sql.NullInt64
	)

	err := row.Scan(
		&instance.ID,
		&instance.WorkflowID,
		&instance.Subplugin,
		&instance.InstanceName,
		&instance.SortIndex,
		&rollbackTo,
	)
	if err != nil {
		return nil, err
	}

	if rollbackTo.Valid {
		target := int(rollbackTo.Int64)
		instance.RollbackTo = &target
	}

	return &instance, nil
}
