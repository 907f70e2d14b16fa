package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/engine"
	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/events"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/process"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/settings"
	"github.com/go-playground/validator/v10"
)

// WorkflowService implements the admin operations on workflows and
// their trigger/step instances.
type WorkflowService struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	settings    *settings.Store
	catalog     catalog.Catalog
	manager     *process.Manager
	processor   *engine.Processor
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

func NewWorkflowService(
	persist persistence.Persistence,
	reg *registry.Registry,
	settingsStore *settings.Store,
	courseCatalog catalog.Catalog,
	manager *process.Manager,
	processor *engine.Processor,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *WorkflowService {
	return &WorkflowService{
		persistence: persist,
		registry:    reg,
		settings:    settingsStore,
		catalog:     courseCatalog,
		manager:     manager,
		processor:   processor,
		publisher:   publisher,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
		now:         time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *WorkflowService) WithNow(now func() time.Time) *WorkflowService {
	s.now = now

	return s
}

// HealthCheck checks the health of the persistence layer.
func (s *WorkflowService) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// CreateWorkflowRequest carries the settings of a new draft workflow.
type CreateWorkflowRequest struct {
	Title                 string `json:"title"                   validate:"required,min=3"`
	DisplayTitle          string `json:"display_title"`
	RollbackDelaySeconds  int64  `json:"rollback_delay_seconds"  validate:"min=0"`
	FinishDelaySeconds    int64  `json:"finish_delay_seconds"    validate:"min=0"`
	DelayForAllWorkflows  bool   `json:"delay_for_all_workflows"`
	IncludeDelayedCourses bool   `json:"include_delayed_courses"`
	IncludeSiteCourse     bool   `json:"include_site_course"`
	Combinator            string `json:"combinator"              validate:"omitempty,oneof=and or"`
}

// Create saves a new workflow as a draft: no activation timestamps, no
// sort index, no instances yet.
func (s *WorkflowService) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, &ServiceError{Op: "CreateWorkflow", Message: err.Error(), Err: ErrInvalidRequest}
	}

	workflow := &models.Workflow{
		Title:                 req.Title,
		DisplayTitle:          req.DisplayTitle,
		RollbackDelaySeconds:  req.RollbackDelaySeconds,
		FinishDelaySeconds:    req.FinishDelaySeconds,
		DelayForAllWorkflows:  req.DelayForAllWorkflows,
		IncludeDelayedCourses: req.IncludeDelayedCourses,
		IncludeSiteCourse:     req.IncludeSiteCourse,
		Combinator:            models.Combinator(req.Combinator),
	}

	err = s.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "workflow created", "workflow_id", workflow.ID, "title", workflow.Title)

	return workflow, nil
}

// Update applies the same settings to an existing draft. Active and
// deactivated workflows are immutable through this path.
func (s *WorkflowService) Update(ctx context.Context, workflowID string, req CreateWorkflowRequest) (*models.Workflow, error) {
	err := s.validator.Struct(req)
	if err != nil {
		return nil, &ServiceError{Op: "UpdateWorkflow", Message: err.Error(), Err: ErrInvalidRequest}
	}

	workflow, err := s.draft(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.Title = req.Title
	workflow.DisplayTitle = req.DisplayTitle
	workflow.RollbackDelaySeconds = req.RollbackDelaySeconds
	workflow.FinishDelaySeconds = req.FinishDelaySeconds
	workflow.DelayForAllWorkflows = req.DelayForAllWorkflows
	workflow.IncludeDelayedCourses = req.IncludeDelayedCourses
	workflow.IncludeSiteCourse = req.IncludeSiteCourse
	workflow.Combinator = models.Combinator(req.Combinator)

	err = s.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Get returns one workflow.
func (s *WorkflowService) Get(ctx context.Context, workflowID string) (*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
}

// List returns all workflows.
func (s *WorkflowService) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetAll(ctx)
}

// Delete removes an inactive workflow with zero running processes,
// cascading its instances and their settings.
func (s *WorkflowService) Delete(ctx context.Context, workflowID string) error {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if workflow.IsActive() {
		return &ServiceError{Op: "DeleteWorkflow", Err: ErrWorkflowActive}
	}

	count, err := s.persistence.ProcessRepository().CountByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to count processes: %w", err)
	}

	if count > 0 {
		return &ServiceError{Op: "DeleteWorkflow", Err: ErrHasProcesses}
	}

	triggers, err := s.persistence.TriggerRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to list triggers: %w", err)
	}

	for _, instance := range triggers {
		err = s.settings.Remove(ctx, instance.ID, models.KindTrigger)
		if err != nil {
			return fmt.Errorf("failed to remove trigger settings: %w", err)
		}
	}

	steps, err := s.persistence.StepRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}

	for _, instance := range steps {
		err = s.settings.Remove(ctx, instance.ID, models.KindStep)
		if err != nil {
			return fmt.Errorf("failed to remove step settings: %w", err)
		}
	}

	err = s.persistence.TriggerRepository().DeleteByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete triggers: %w", err)
	}

	err = s.persistence.StepRepository().DeleteByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete steps: %w", err)
	}

	err = s.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "workflow deleted", "workflow_id", workflowID)

	return nil
}

// Activate enables a workflow for evaluation. The workflow needs at
// least one trigger; manual workflows (exactly one manual trigger)
// never receive a sort index.
func (s *WorkflowService) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.IsActive() {
		return workflow, nil
	}

	triggers, err := s.persistence.TriggerRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}

	if len(triggers) == 0 {
		return nil, &ServiceError{Op: "ActivateWorkflow", Err: ErrNoTriggers}
	}

	manual, err := s.deriveManual(triggers)
	if err != nil {
		return nil, err
	}

	workflow.Manual = manual
	now := s.now().UTC()
	workflow.TimeActive = &now
	workflow.TimeDeactive = nil

	if !manual {
		maxIndex, err := s.persistence.WorkflowRepository().MaxSortIndex(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to determine sort index: %w", err)
		}

		workflow.SortIndex = maxIndex + 1
	}

	err = s.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	s.publish(ctx, workflow.ID, events.WorkflowActivated{
		BaseEvent: events.NewBaseEvent(events.WorkflowActivatedEvent, workflow.ID),
		Title:     workflow.Title,
	})

	s.logger.InfoContext(ctx, "workflow activated",
		"workflow_id", workflow.ID, "title", workflow.Title, "manual", workflow.Manual)

	return workflow, nil
}

// Deactivate stamps the deactivation time. With abortProcesses the
// workflow's running processes are rolled back; otherwise they drain
// through the remaining advancement passes.
func (s *WorkflowService) Deactivate(ctx context.Context, workflowID string, abortProcesses bool) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsActive() {
		return nil, &ServiceError{Op: "DeactivateWorkflow", Err: ErrWorkflowNotActive}
	}

	now := s.now().UTC()
	workflow.TimeDeactive = &now

	err = s.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow: %w", err)
	}

	aborted := 0

	if abortProcesses {
		processes, err := s.persistence.ProcessRepository().ListByWorkflow(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to list processes: %w", err)
		}

		for _, proc := range processes {
			err = s.manager.Rollback(ctx, proc)
			if err != nil {
				return nil, fmt.Errorf("failed to abort process %s: %w", proc.ID, err)
			}

			aborted++
		}
	}

	s.publish(ctx, workflow.ID, events.WorkflowDeactivated{
		BaseEvent:        events.NewBaseEvent(events.WorkflowDeactivatedEvent, workflow.ID),
		Title:            workflow.Title,
		ProcessesAborted: aborted,
	})

	s.logger.InfoContext(ctx, "workflow deactivated",
		"workflow_id", workflow.ID, "aborted_processes", aborted)

	return workflow, nil
}

// Reorder swaps the selection-pass order of two active automatic
// workflows.
func (s *WorkflowService) Reorder(ctx context.Context, workflowID, otherID string) error {
	first, err := s.activeAutomatic(ctx, "ReorderWorkflow", workflowID)
	if err != nil {
		return err
	}

	second, err := s.activeAutomatic(ctx, "ReorderWorkflow", otherID)
	if err != nil {
		return err
	}

	first.SortIndex, second.SortIndex = second.SortIndex, first.SortIndex

	for _, workflow := range []*models.Workflow{first, second} {
		err = s.persistence.WorkflowRepository().Save(ctx, workflow)
		if err != nil {
			return fmt.Errorf("failed to reorder workflow %s: %w", workflow.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "workflows reordered",
		"workflow_id", first.ID, "other_id", second.ID)

	return nil
}

func (s *WorkflowService) activeAutomatic(ctx context.Context, op, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsActive() {
		return nil, &ServiceError{Op: op, Err: ErrWorkflowNotActive}
	}

	if workflow.Manual {
		return nil, &ServiceError{Op: op, Err: ErrWorkflowManual}
	}

	return workflow, nil
}

// ManualTrigger validates and fires a manual trigger for one course,
// then continues interactively while possible. The returned flag
// reports whether interactive continuation finished.
func (s *WorkflowService) ManualTrigger(ctx context.Context, workflowID, triggerInstanceID string, courseID int64) (bool, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return false, err
	}

	if !workflow.IsActive() {
		return false, &ServiceError{Op: "ManualTrigger", Err: ErrWorkflowNotActive}
	}

	instance, err := s.persistence.TriggerRepository().GetByID(ctx, triggerInstanceID)
	if err != nil {
		return false, err
	}

	if instance.WorkflowID != workflowID {
		return false, &ServiceError{Op: "ManualTrigger", Err: ErrInstanceMismatch}
	}

	strategy, err := s.registry.ResolveTrigger(instance.Subplugin)
	if err != nil {
		return false, &ServiceError{Op: "ManualTrigger", Message: err.Error(), Err: ErrUnknownSubplugin}
	}

	if !strategy.Manual() {
		return false, &ServiceError{Op: "ManualTrigger", Err: ErrNotManualTrigger}
	}

	_, err = s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		if catalog.IsCourseNotFound(err) {
			return false, &ServiceError{Op: "ManualTrigger", Err: ErrCourseNotFound}
		}

		return false, fmt.Errorf("failed to resolve course %d: %w", courseID, err)
	}

	_, err = s.persistence.ProcessRepository().GetByCourse(ctx, courseID)
	if err == nil {
		return false, &ServiceError{Op: "ManualTrigger", Err: ErrProcessExists}
	}

	if !persistence.IsProcessNotFound(err) {
		return false, fmt.Errorf("failed to check for existing process: %w", err)
	}

	proc, err := s.manager.Create(ctx, courseID, workflowID)
	if err != nil {
		return false, err
	}

	return s.processor.ContinueInteractive(ctx, proc.ID)
}

// deriveManual inspects the trigger strategies: a workflow is manual
// when its trigger is manual, and manual workflows carry exactly one
// trigger.
func (s *WorkflowService) deriveManual(triggers []*models.TriggerInstance) (bool, error) {
	manual := false

	for _, instance := range triggers {
		strategy, err := s.registry.ResolveTrigger(instance.Subplugin)
		if err != nil {
			return false, &ServiceError{Op: "ActivateWorkflow", Message: err.Error(), Err: ErrUnknownSubplugin}
		}

		if strategy.Manual() {
			manual = true
		}
	}

	if manual && len(triggers) > 1 {
		return false, &ServiceError{Op: "ActivateWorkflow", Err: ErrManualMultiTrigger}
	}

	return manual, nil
}

// draft loads a workflow and rejects non-drafts.
func (s *WorkflowService) draft(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status() != models.WorkflowStatusDraft {
		return nil, &ServiceError{Op: "workflow", Err: ErrWorkflowNotDraft}
	}

	return workflow, nil
}

func (s *WorkflowService) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, key, event)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
