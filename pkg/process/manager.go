// Package process manages the lifecycle of live process records:
// creation, advancement, waiting, rollback and error parking.
package process

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/events"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/settings"
)

// Manager owns every mutation of the process and process-error stores.
// All operations return fresh snapshots instead of mutating their input.
type Manager struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	settings    *settings.Store
	catalog     catalog.Catalog
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewManager(
	persist persistence.Persistence,
	reg *registry.Registry,
	settingsStore *settings.Store,
	courseCatalog catalog.Catalog,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		persistence: persist,
		registry:    reg,
		settings:    settingsStore,
		catalog:     courseCatalog,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Create inserts a new process at step index 0. The store's unique
// course constraint rejects a second live process for the same course
// with persistence.ErrProcessExists. Trigger validation is the caller's
// responsibility.
func (m *Manager) Create(ctx context.Context, courseID int64, workflowID string) (*models.Process, error) {
	now := m.now().UTC()

	proc := &models.Process{
		WorkflowID:      workflowID,
		CourseID:        courseID,
		StepIndex:       0,
		Waiting:         false,
		TimeStepChanged: now,
		CreatedAt:       now,
	}

	err := m.persistence.ProcessRepository().Save(ctx, proc)
	if err != nil {
		return nil, fmt.Errorf("failed to create process for course %d: %w", courseID, err)
	}

	m.publish(ctx, proc.ID, events.ProcessTriggered{
		BaseEvent: events.NewBaseEvent(events.ProcessTriggeredEvent, workflowID),
		ProcessID: proc.ID,
		CourseID:  courseID,
	})

	return proc, nil
}

// Proceed advances a process into the step after its current one. When
// a next step exists it returns the advanced snapshot and true. When the
// process has exhausted its steps it deletes the process together with
// its scratch data and returns (nil, false); the caller must then apply
// the workflow's finish delay.
func (m *Manager) Proceed(ctx context.Context, proc *models.Process) (*models.Process, bool, error) {
	next := proc.StepIndex + 1

	_, err := m.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, next)
	if err != nil {
		if !persistence.IsStepNotFound(err) {
			return nil, false, fmt.Errorf("failed to look up step %d: %w", next, err)
		}

		err = m.remove(ctx, proc)
		if err != nil {
			return nil, false, err
		}

		m.publish(ctx, proc.ID, events.ProcessFinished{
			BaseEvent: events.NewBaseEvent(events.ProcessFinishedEvent, proc.WorkflowID),
			ProcessID: proc.ID,
			CourseID:  proc.CourseID,
		})

		return nil, false, nil
	}

	advanced := *proc
	advanced.StepIndex = next
	advanced.Waiting = false
	advanced.TimeStepChanged = m.now().UTC()

	err = m.persistence.ProcessRepository().Save(ctx, &advanced)
	if err != nil {
		return nil, false, fmt.Errorf("failed to advance process %s: %w", proc.ID, err)
	}

	m.publish(ctx, advanced.ID, events.ProcessProceeded{
		BaseEvent: events.NewBaseEvent(events.ProcessProceededEvent, advanced.WorkflowID),
		ProcessID: advanced.ID,
		CourseID:  advanced.CourseID,
		StepIndex: advanced.StepIndex,
	})

	return &advanced, true, nil
}

// SetWaiting marks the current step as needing re-polling on the next
// run and returns the updated snapshot.
func (m *Manager) SetWaiting(ctx context.Context, proc *models.Process) (*models.Process, error) {
	waiting := *proc
	waiting.Waiting = true

	err := m.persistence.ProcessRepository().Save(ctx, &waiting)
	if err != nil {
		return nil, fmt.Errorf("failed to set process %s waiting: %w", proc.ID, err)
	}

	m.publish(ctx, waiting.ID, events.ProcessWaiting{
		BaseEvent: events.NewBaseEvent(events.ProcessWaitingEvent, waiting.WorkflowID),
		ProcessID: waiting.ID,
		CourseID:  waiting.CourseID,
		StepIndex: waiting.StepIndex,
	})

	return &waiting, nil
}

// Rollback unwinds a process and removes it. Steps are given their
// cleanup call in descending order from stepIndex-1 down to the current
// step's declared rollback target, or 1 when none is declared. A course
// deleted out-of-band skips the cleanup calls but the process is still
// removed. The caller must separately apply the rollback delay.
func (m *Manager) Rollback(ctx context.Context, proc *models.Process) error {
	target := m.rollbackTarget(ctx, proc)

	course, err := m.catalog.GetCourse(ctx, proc.CourseID)
	if err != nil {
		if !catalog.IsCourseNotFound(err) {
			return fmt.Errorf("failed to resolve course %d: %w", proc.CourseID, err)
		}

		m.logger.InfoContext(ctx, "course gone, skipping rollback cleanup",
			"process_id", proc.ID, "course_id", proc.CourseID)
	} else {
		for index := proc.StepIndex - 1; index >= target; index-- {
			m.rollbackStep(ctx, proc, course, index)
		}
	}

	err = m.remove(ctx, proc)
	if err != nil {
		return err
	}

	m.publish(ctx, proc.ID, events.ProcessRolledBack{
		BaseEvent: events.NewBaseEvent(events.ProcessRolledBackEvent, proc.WorkflowID),
		ProcessID: proc.ID,
		CourseID:  proc.CourseID,
		FromStep:  proc.StepIndex,
		ToStep:    target,
	})

	return nil
}

// InsertError parks a failed process: the snapshot, the failure message
// and a dedup hash go to the error store and the live row is deleted so
// the rest of the batch is unaffected.
func (m *Manager) InsertError(ctx context.Context, proc *models.Process, cause error) error {
	message := cause.Error()
	trace := string(debug.Stack())

	sum := sha1.Sum([]byte(proc.WorkflowID + "|" + fmt.Sprint(proc.StepIndex) + "|" + message))

	processError := &models.ProcessError{
		CourseID:        proc.CourseID,
		WorkflowID:      proc.WorkflowID,
		StepIndex:       proc.StepIndex,
		Waiting:         proc.Waiting,
		TimeStepChanged: proc.TimeStepChanged,
		Message:         message,
		Trace:           trace,
		Hash:            hex.EncodeToString(sum[:]),
		CreatedAt:       m.now().UTC(),
	}

	err := m.persistence.ProcessErrorRepository().Insert(ctx, processError)
	if err != nil {
		return fmt.Errorf("failed to record process error: %w", err)
	}

	err = m.remove(ctx, proc)
	if err != nil {
		return err
	}

	m.logger.ErrorContext(ctx, "process parked as error",
		"process_id", proc.ID,
		"course_id", proc.CourseID,
		"workflow_id", proc.WorkflowID,
		"step_index", proc.StepIndex,
		"error", message,
	)

	m.publish(ctx, proc.ID, events.ProcessErrored{
		BaseEvent: events.NewBaseEvent(events.ProcessErroredEvent, proc.WorkflowID),
		ProcessID: proc.ID,
		CourseID:  proc.CourseID,
		StepIndex: proc.StepIndex,
		Message:   message,
	})

	return nil
}

// Data returns the scratch store scoped to one process.
func (m *Manager) Data(processID string) protocol.ProcessData {
	return DataFor(m.persistence.ProcessDataRepository(), processID)
}

// WithNow overrides the clock, for tests.
func (m *Manager) WithNow(now func() time.Time) *Manager {
	m.now = now

	return m
}

func (m *Manager) rollbackTarget(ctx context.Context, proc *models.Process) int {
	if proc.StepIndex < 1 {
		return 1
	}

	current, err := m.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, proc.StepIndex)
	if err != nil {
		if !persistence.IsStepNotFound(err) {
			m.logger.WarnContext(ctx, "failed to resolve current step for rollback target",
				"process_id", proc.ID, "step_index", proc.StepIndex, "error", err)
		}

		return 1
	}

	if current.RollbackTo != nil && *current.RollbackTo >= 1 {
		return *current.RollbackTo
	}

	return 1
}

// rollbackStep is best-effort: a failing cleanup call is logged and the
// unwind continues.
func (m *Manager) rollbackStep(ctx context.Context, proc *models.Process, course *models.Course, index int) {
	instance, err := m.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, index)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to resolve step for rollback",
			"process_id", proc.ID, "step_index", index, "error", err)

		return
	}

	strategy, err := m.registry.ResolveStep(instance.Subplugin)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to resolve step strategy for rollback",
			"process_id", proc.ID, "subplugin", instance.Subplugin, "error", err)

		return
	}

	instanceSettings, err := m.settings.Get(ctx, instance.ID, models.KindStep, instance.Subplugin)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load step settings for rollback",
			"process_id", proc.ID, "instance_id", instance.ID, "error", err)

		instanceSettings = map[string]any{}
	}

	err = strategy.RollbackCourse(ctx, protocol.StepRequest{
		ProcessID: proc.ID,
		Course:    course,
		Instance:  instance,
		Settings:  instanceSettings,
		Data:      m.Data(proc.ID),
		Logger:    m.logger,
	})
	if err != nil {
		m.logger.WarnContext(ctx, "step rollback failed",
			"process_id", proc.ID, "step_index", index, "subplugin", instance.Subplugin, "error", err)
	}
}

// remove deletes a process row and its scratch data.
func (m *Manager) remove(ctx context.Context, proc *models.Process) error {
	err := m.persistence.ProcessDataRepository().DeleteByProcess(ctx, proc.ID)
	if err != nil {
		return fmt.Errorf("failed to delete process data for %s: %w", proc.ID, err)
	}

	err = m.persistence.ProcessRepository().Delete(ctx, proc.ID)
	if err != nil {
		return fmt.Errorf("failed to delete process %s: %w", proc.ID, err)
	}

	return nil
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	err := m.publisher.Publish(ctx, key, event)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
