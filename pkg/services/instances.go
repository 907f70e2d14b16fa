package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/campuskit/coursecycle/pkg/models"
)

// AddInstanceRequest carries a new trigger or step instance. The
// instance is appended at the end of the workflow's sort order.
type AddInstanceRequest struct {
	Subplugin    string         `json:"subplugin"     validate:"required"`
	InstanceName string         `json:"instance_name" validate:"required"`
	Settings     map[string]any `json:"settings"`

	// RollbackTo only applies to steps.
	RollbackTo *int `json:"rollback_to,omitempty" validate:"omitempty,min=1"`
}

// AddTrigger appends a trigger instance to a draft workflow.
func (s *WorkflowService) AddTrigger(ctx context.Context, workflowID string, req AddInstanceRequest) (*models.TriggerInstance, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, &ServiceError{Op: "AddTrigger", Message: err.Error(), Err: ErrInvalidRequest}
	}

	workflow, err := s.draft(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	strategy, err := s.registry.ResolveTrigger(req.Subplugin)
	if err != nil {
		return nil, &ServiceError{Op: "AddTrigger", Message: err.Error(), Err: ErrUnknownSubplugin}
	}

	if problems := strategy.ValidateSettings(req.Settings); len(problems) > 0 {
		return nil, &ServiceError{Op: "AddTrigger", Message: strings.Join(problems, "; "), Err: ErrInvalidSettings}
	}

	existing, err := s.persistence.TriggerRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}

	instance := &models.TriggerInstance{
		WorkflowID:   workflow.ID,
		Subplugin:    req.Subplugin,
		InstanceName: req.InstanceName,
		SortIndex:    len(existing) + 1,
	}

	err = s.persistence.TriggerRepository().Save(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to save trigger instance: %w", err)
	}

	err = s.settings.Save(ctx, instance.ID, models.KindTrigger, req.Subplugin, req.Settings)
	if err != nil {
		return nil, &ServiceError{Op: "AddTrigger", Message: err.Error(), Err: ErrInvalidSettings}
	}

	s.logger.InfoContext(ctx, "trigger instance added",
		"workflow_id", workflowID, "instance_id", instance.ID, "subplugin", req.Subplugin)

	return instance, nil
}

// AddStep appends a step instance to a draft workflow.
func (s *WorkflowService) AddStep(ctx context.Context, workflowID string, req AddInstanceRequest) (*models.StepInstance, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, &ServiceError{Op: "AddStep", Message: err.Error(), Err: ErrInvalidRequest}
	}

	workflow, err := s.draft(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	_, err = s.registry.ResolveStep(req.Subplugin)
	if err != nil {
		return nil, &ServiceError{Op: "AddStep", Message: err.Error(), Err: ErrUnknownSubplugin}
	}

	count, err := s.persistence.StepRepository().CountByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to count steps: %w", err)
	}

	instance := &models.StepInstance{
		WorkflowID:   workflow.ID,
		Subplugin:    req.Subplugin,
		InstanceName: req.InstanceName,
		SortIndex:    count + 1,
		RollbackTo:   req.RollbackTo,
	}

	err = s.persistence.StepRepository().Save(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to save step instance: %w", err)
	}

	err = s.settings.Save(ctx, instance.ID, models.KindStep, req.Subplugin, req.Settings)
	if err != nil {
		return nil, &ServiceError{Op: "AddStep", Message: err.Error(), Err: ErrInvalidSettings}
	}

	s.logger.InfoContext(ctx, "step instance added",
		"workflow_id", workflowID, "instance_id", instance.ID, "subplugin", req.Subplugin)

	return instance, nil
}

// RemoveTrigger deletes a trigger instance from a draft workflow and
// closes the gap in the remaining sort indices.
func (s *WorkflowService) RemoveTrigger(ctx context.Context, workflowID, instanceID string) error {
	_, err := s.draft(ctx, workflowID)
	if err != nil {
		return err
	}

	instance, err := s.persistence.TriggerRepository().GetByID(ctx, instanceID)
	if err != nil {
		return err
	}

	if instance.WorkflowID != workflowID {
		return &ServiceError{Op: "RemoveTrigger", Err: ErrInstanceMismatch}
	}

	err = s.settings.Remove(ctx, instanceID, models.KindTrigger)
	if err != nil {
		return fmt.Errorf("failed to remove trigger settings: %w", err)
	}

	err = s.persistence.TriggerRepository().Delete(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to delete trigger instance: %w", err)
	}

	return s.renumberTriggers(ctx, workflowID)
}

// RemoveStep deletes a step instance from a draft workflow and closes
// the gap in the remaining sort indices.
func (s *WorkflowService) RemoveStep(ctx context.Context, workflowID, instanceID string) error {
	_, err := s.draft(ctx, workflowID)
	if err != nil {
		return err
	}

	instance, err := s.persistence.StepRepository().GetByID(ctx, instanceID)
	if err != nil {
		return err
	}

	if instance.WorkflowID != workflowID {
		return &ServiceError{Op: "RemoveStep", Err: ErrInstanceMismatch}
	}

	err = s.settings.Remove(ctx, instanceID, models.KindStep)
	if err != nil {
		return fmt.Errorf("failed to remove step settings: %w", err)
	}

	err = s.persistence.StepRepository().Delete(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to delete step instance: %w", err)
	}

	return s.renumberSteps(ctx, workflowID)
}

// ListTriggers returns a workflow's trigger instances in sort order.
func (s *WorkflowService) ListTriggers(ctx context.Context, workflowID string) ([]*models.TriggerInstance, error) {
	return s.persistence.TriggerRepository().ListByWorkflow(ctx, workflowID)
}

// ListSteps returns a workflow's step instances in sort order.
func (s *WorkflowService) ListSteps(ctx context.Context, workflowID string) ([]*models.StepInstance, error) {
	return s.persistence.StepRepository().ListByWorkflow(ctx, workflowID)
}

// renumberTriggers rewrites the surviving instances back to a
// contiguous 1..N sequence. Saving in ascending order keeps the unique
// (workflow, sort index) constraint satisfied at every point.
func (s *WorkflowService) renumberTriggers(ctx context.Context, workflowID string) error {
	instances, err := s.persistence.TriggerRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to list triggers: %w", err)
	}

	for position, instance := range instances {
		if instance.SortIndex == position+1 {
			continue
		}

		instance.SortIndex = position + 1

		err = s.persistence.TriggerRepository().Save(ctx, instance)
		if err != nil {
			return fmt.Errorf("failed to renumber trigger instance %s: %w", instance.ID, err)
		}
	}

	return nil
}

func (s *WorkflowService) renumberSteps(ctx context.Context, workflowID string) error {
	instances, err := s.persistence.StepRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}

	for position, instance := range instances {
		if instance.SortIndex == position+1 {
			continue
		}

		instance.SortIndex = position + 1

		err = s.persistence.StepRepository().Save(ctx, instance)
		if err != nil {
			return fmt.Errorf("failed to renumber step instance %s: %w", instance.ID, err)
		}
	}

	return nil
}
