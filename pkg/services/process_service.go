package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
)

// ProcessService implements the read operations on running processes
// and parked process errors.
type ProcessService struct {
	persistence persistence.Persistence
	catalog     catalog.Catalog
	security    catalog.SecurityContextProvider
	logger      *slog.Logger
}

func NewProcessService(
	persist persistence.Persistence,
	courseCatalog catalog.Catalog,
	security catalog.SecurityContextProvider,
	logger *slog.Logger,
) *ProcessService {
	return &ProcessService{
		persistence: persist,
		catalog:     courseCatalog,
		security:    security,
		logger:      logger,
	}
}

// ListProcesses returns every running process enriched with its course
// name and security context.
func (s *ProcessService) ListProcesses(ctx context.Context) ([]*models.ProcessView, error) {
	processes, err := s.persistence.ProcessRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return s.views(ctx, processes)
}

// ListByWorkflow returns one workflow's running processes as views.
func (s *ProcessService) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessView, error) {
	processes, err := s.persistence.ProcessRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return s.views(ctx, processes)
}

// GetProcess returns one process as a view.
func (s *ProcessService) GetProcess(ctx context.Context, processID string) (*models.ProcessView, error) {
	proc, err := s.persistence.ProcessRepository().GetByID(ctx, processID)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, proc), nil
}

// ListErrors returns all parked process errors.
func (s *ProcessService) ListErrors(ctx context.Context) ([]*models.ProcessError, error) {
	return s.persistence.ProcessErrorRepository().GetAll(ctx)
}

// DeleteError disposes of a parked error, releasing the course for
// future selection.
func (s *ProcessService) DeleteError(ctx context.Context, errorID string) error {
	err := s.persistence.ProcessErrorRepository().Delete(ctx, errorID)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "process error disposed", "error_id", errorID)

	return nil
}

func (s *ProcessService) views(ctx context.Context, processes []*models.Process) ([]*models.ProcessView, error) {
	views := make([]*models.ProcessView, 0, len(processes))
	for _, proc := range processes {
		views = append(views, s.view(ctx, proc))
	}

	return views, nil
}

// view resolves the course name and security context best-effort; a
// deleted course leaves both fields empty rather than failing the list.
func (s *ProcessService) view(ctx context.Context, proc *models.Process) *models.ProcessView {
	result := &models.ProcessView{Process: *proc}

	course, err := s.catalog.GetCourse(ctx, proc.CourseID)
	if err != nil {
		if !catalog.IsCourseNotFound(err) {
			s.logger.WarnContext(ctx, "failed to resolve course for process view",
				"process_id", proc.ID, "course_id", proc.CourseID, "error", err)
		}

		return result
	}

	result.CourseFullName = course.FullName

	if s.security != nil {
		scope, err := s.security.ContextFor(ctx, proc.CourseID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to resolve security context",
				"process_id", proc.ID, "course_id", proc.CourseID, "error", err)
		} else {
			result.SecurityContext = scope
		}
	}

	return result
}
