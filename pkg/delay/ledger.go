// Package delay tracks cooldown periods during which courses are
// excluded from (re-)selection by one or all workflows.
package delay

import (
	"context"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
)

// Ledger is the delay bookkeeping consulted by the selection pass and
// written by the process manager when a process finishes or rolls back.
type Ledger interface {
	// SetCourseDelayed writes a delay entry computed from the workflow's
	// finish or rollback delay. Zero-duration delays are a no-op so
	// workflows that never delay do not grow the ledger.
	SetCourseDelayed(ctx context.Context, courseID int64, rollback bool, workflow *models.Workflow) error

	// CourseDelayedUntil returns the global delayed-until timestamp, or
	// the zero time when none exists.
	CourseDelayedUntil(ctx context.Context, courseID int64) (time.Time, error)

	// CourseDelayedUntilForWorkflow returns the per-workflow
	// delayed-until timestamp, or the zero time when none exists.
	CourseDelayedUntilForWorkflow(ctx context.Context, courseID int64, workflowID string) (time.Time, error)

	GloballyDelayedCourses(ctx context.Context) ([]int64, error)
	DelayedCoursesForWorkflow(ctx context.Context, workflowID string) ([]int64, error)
}

// Delayed reports whether a course is currently delayed with respect to
// one workflow: the later of the global and per-workflow expiry must
// still be in the future.
func Delayed(ctx context.Context, ledger Ledger, courseID int64, workflowID string, now time.Time) (bool, error) {
	global, err := ledger.CourseDelayedUntil(ctx, courseID)
	if err != nil {
		return false, err
	}

	perWorkflow, err := ledger.CourseDelayedUntilForWorkflow(ctx, courseID, workflowID)
	if err != nil {
		return false, err
	}

	until := global
	if perWorkflow.After(until) {
		until = perWorkflow
	}

	return until.After(now), nil
}

func delayFor(rollback bool, workflow *models.Workflow) time.Duration {
	if rollback {
		return workflow.RollbackDelay()
	}

	return workflow.FinishDelay()
}
