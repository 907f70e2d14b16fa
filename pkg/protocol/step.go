package protocol

import (
	"context"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/models"
)

// StepVerdict is the outcome of one step's processing of one course.
type StepVerdict string

const (
	// VerdictWaiting keeps the process on the current step to be
	// re-polled on the next run.
	VerdictWaiting StepVerdict = "waiting"
	// VerdictProceed advances the process to the next step.
	VerdictProceed StepVerdict = "proceed"
	// VerdictRollback unwinds the process and removes it.
	VerdictRollback StepVerdict = "rollback"
)

// ProcessData is the per-process key/value scratch store available to
// steps. Entries are deleted with the owning process.
type ProcessData interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// StepRequest carries everything a step needs to process one course.
// Course may be a stand-in with only the id set when the backing entity
// was deleted out-of-band.
type StepRequest struct {
	ProcessID string
	Course    *models.Course
	Instance  *models.StepInstance
	Settings  map[string]any
	Data      ProcessData

	// Batch is the accumulator shared by all invocations of this step
	// type within one advancement pass. Nil outside batch runs.
	Batch *BatchRun

	Logger *slog.Logger
}

// StepStrategy is the executable behavior behind a step instance.
type StepStrategy interface {
	// Name is the subplugin type name instances reference.
	Name() string

	// ProcessCourse runs the step for a course entering or re-entering it.
	ProcessCourse(ctx context.Context, req StepRequest) (StepVerdict, error)

	// ProcessWaitingCourse is invoked instead of ProcessCourse while the
	// process's waiting flag is set.
	ProcessWaitingCourse(ctx context.Context, req StepRequest) (StepVerdict, error)

	// RollbackCourse is best-effort cleanup, called once per step being
	// unwound.
	RollbackCourse(ctx context.Context, req StepRequest) error

	// Settings declares the configuration parameters instances of this
	// step accept.
	Settings() []SettingDescriptor
}

// InteractionVerdict is the outcome of a human-present step interaction.
type InteractionVerdict string

const (
	// InteractionStillProcessing awaits further input from the person.
	InteractionStillProcessing InteractionVerdict = "still_processing"
	// InteractionNoAction changed nothing; the batch pass continues later.
	InteractionNoAction InteractionVerdict = "no_action"
	// InteractionProceed chains into the next step without waiting for
	// the batch.
	InteractionProceed InteractionVerdict = "proceed"
	// InteractionRollback unwinds the process.
	InteractionRollback InteractionVerdict = "rollback"
)

// InteractionRequest carries a pending human decision into a step's
// interaction handler. Action is the UI-originated verb (e.g. "approve").
type InteractionRequest struct {
	StepRequest

	Action string
}

// Interactive is the optional secondary capability of a step used only
// by interactive continuation. Steps that never need a person present
// simply do not implement it.
type Interactive interface {
	HandleInteraction(ctx context.Context, req InteractionRequest) (InteractionVerdict, error)
}
