package delay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
)

// Store implements Ledger over the relational delay repository.
type Store struct {
	repository persistence.DelayRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewStore creates a repository-backed delay ledger.
func NewStore(repository persistence.DelayRepository, logger *slog.Logger) *Store {
	return &Store{
		repository: repository,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Store) SetCourseDelayed(ctx context.Context, courseID int64, rollback bool, workflow *models.Workflow) error {
	duration := delayFor(rollback, workflow)
	if duration <= 0 {
		return nil
	}

	entry := &models.DelayEntry{
		CourseID:     courseID,
		DelayedUntil: s.now().UTC().Add(duration),
	}

	if !workflow.DelayForAllWorkflows {
		entry.WorkflowID = workflow.ID
	}

	err := s.repository.Upsert(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to delay course %d: %w", courseID, err)
	}

	s.logger.DebugContext(ctx, "course delayed",
		"course_id", courseID,
		"workflow_id", entry.WorkflowID,
		"rollback", rollback,
		"delayed_until", entry.DelayedUntil,
	)

	return nil
}

func (s *Store) CourseDelayedUntil(ctx context.Context, courseID int64) (time.Time, error) {
	return s.repository.GlobalDelayedUntil(ctx, courseID)
}

func (s *Store) CourseDelayedUntilForWorkflow(ctx context.Context, courseID int64, workflowID string) (time.Time, error) {
	return s.repository.WorkflowDelayedUntil(ctx, courseID, workflowID)
}

func (s *Store) GloballyDelayedCourses(ctx context.Context) ([]int64, error) {
	return s.repository.GloballyDelayedCourses(ctx, s.now().UTC())
}

func (s *Store) DelayedCoursesForWorkflow(ctx context.Context, workflowID string) ([]int64, error) {
	return s.repository.DelayedCoursesForWorkflow(ctx, workflowID, s.now().UTC())
}

// PurgeExpired removes entries whose delay has lapsed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repository.DeleteExpired(ctx, s.now().UTC())
}

// WithNow overrides the clock, for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now

	return s
}
