// Package persistence provides the data storage abstraction for
// workflows, subplugin instances, processes, delays and settings.
package persistence

import (
	"context"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
)

// Persistence aggregates the repositories of the engine's persisted state.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	TriggerRepository() TriggerRepository
	StepRepository() StepRepository
	ProcessRepository() ProcessRepository
	ProcessErrorRepository() ProcessErrorRepository
	ProcessDataRepository() ProcessDataRepository
	DelayRepository() DelayRepository
	SettingsRepository() SettingsRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// GetActiveAutomatic returns active non-manual workflows in
	// ascending sort-index order, the order the selection pass uses.
	GetActiveAutomatic(ctx context.Context) ([]*models.Workflow, error)

	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// MaxSortIndex returns the highest sort index among active
	// automatic workflows, 0 when there are none.
	MaxSortIndex(ctx context.Context) (int, error)
}

// TriggerRepository stores trigger instances.
type TriggerRepository interface {
	// ListByWorkflow returns instances in ascending sort-index order.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.TriggerInstance, error)
	GetByID(ctx context.Context, id string) (*models.TriggerInstance, error)
	Save(ctx context.Context, instance *models.TriggerInstance) error
	Delete(ctx context.Context, id string) error
	DeleteByWorkflow(ctx context.Context, workflowID string) error
}

// StepRepository stores step instances.
type StepRepository interface {
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.StepInstance, error)
	GetByID(ctx context.Context, id string) (*models.StepInstance, error)

	// GetAt returns the instance at a 1-based sort index, or
	// ErrStepNotFound past the end of the list.
	GetAt(ctx context.Context, workflowID string, sortIndex int) (*models.StepInstance, error)

	CountByWorkflow(ctx context.Context, workflowID string) (int, error)
	Save(ctx context.Context, instance *models.StepInstance) error
	Delete(ctx context.Context, id string) error
	DeleteByWorkflow(ctx context.Context, workflowID string) error
}

// ProcessRepository stores live processes. The store enforces at most
// one live process per course.
type ProcessRepository interface {
	GetAll(ctx context.Context) ([]*models.Process, error)
	GetByID(ctx context.Context, id string) (*models.Process, error)

	// GetByCourse returns ErrProcessNotFound when the course has no
	// live process.
	GetByCourse(ctx context.Context, courseID int64) (*models.Process, error)

	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Process, error)
	CountByWorkflow(ctx context.Context, workflowID string) (int, error)

	// CourseIDs returns every course currently claimed by any process.
	CourseIDs(ctx context.Context) ([]int64, error)

	// Save inserts or updates; inserting a second process for a course
	// fails with ErrProcessExists.
	Save(ctx context.Context, process *models.Process) error
	Delete(ctx context.Context, id string) error
}

// ProcessErrorRepository stores parked, failed process snapshots.
type ProcessErrorRepository interface {
	Insert(ctx context.Context, processError *models.ProcessError) error
	GetAll(ctx context.Context) ([]*models.ProcessError, error)
	CourseIDs(ctx context.Context) ([]int64, error)
	Delete(ctx context.Context, id string) error
}

// ProcessDataRepository stores per-process key/value scratch data,
// deleted together with the owning process.
type ProcessDataRepository interface {
	Get(ctx context.Context, processID, key string) (string, bool, error)
	Set(ctx context.Context, processID, key, value string) error
	DeleteByProcess(ctx context.Context, processID string) error
}

// DelayRepository stores delay ledger entries.
type DelayRepository interface {
	// Upsert replaces any existing entry for the same (course, workflow)
	// pair; WorkflowID "" is the global pair.
	Upsert(ctx context.Context, entry *models.DelayEntry) error

	// GlobalDelayedUntil returns the zero time when no entry exists.
	GlobalDelayedUntil(ctx context.Context, courseID int64) (time.Time, error)
	WorkflowDelayedUntil(ctx context.Context, courseID int64, workflowID string) (time.Time, error)

	// GloballyDelayedCourses lists courses whose global delay is still
	// in the future at the given instant.
	GloballyDelayedCourses(ctx context.Context, now time.Time) ([]int64, error)
	DelayedCoursesForWorkflow(ctx context.Context, workflowID string, now time.Time) ([]int64, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SettingsRepository stores cleaned per-instance subplugin settings.
type SettingsRepository interface {
	Upsert(ctx context.Context, instanceID string, kind models.SubpluginKind, name, value string) error
	GetAll(ctx context.Context, instanceID string, kind models.SubpluginKind) (map[string]string, error)
	DeleteByInstance(ctx context.Context, instanceID string, kind models.SubpluginKind) error
}
