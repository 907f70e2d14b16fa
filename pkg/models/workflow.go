// Package models defines the core domain models for course-lifecycle workflows.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft       WorkflowStatus = "draft"       // Editable, not evaluated
	WorkflowStatusActive      WorkflowStatus = "active"      // Evaluated by the engine
	WorkflowStatusDeactivated WorkflowStatus = "deactivated" // Historical, processes may still drain
)

// Combinator governs how multiple trigger verdicts are combined for one workflow.
type Combinator string

const (
	CombinatorAnd Combinator = "and" // Every trigger must agree (default)
	CombinatorOr  Combinator = "or"  // First Select wins, Exclude still vetoes
)

// Workflow is an admin-defined pipeline of triggers and steps applied to courses.
type Workflow struct {
	ID           string `json:"id"`
	Title        string `json:"title"         validate:"required,min=3"`
	DisplayTitle string `json:"display_title"`

	// TimeActive set with TimeDeactive absent means "active"; both absent means "draft".
	TimeActive   *time.Time `json:"time_active,omitempty"`
	TimeDeactive *time.Time `json:"time_deactive,omitempty"`

	// SortIndex orders active automatic workflows during the selection pass.
	SortIndex int  `json:"sort_index"`
	Manual    bool `json:"manual"`

	RollbackDelaySeconds int64 `json:"rollback_delay_seconds" validate:"min=0"`
	FinishDelaySeconds   int64 `json:"finish_delay_seconds"   validate:"min=0"`

	DelayForAllWorkflows  bool `json:"delay_for_all_workflows"`
	IncludeDelayedCourses bool `json:"include_delayed_courses"`
	IncludeSiteCourse     bool `json:"include_site_course"`

	Combinator Combinator `json:"combinator" validate:"omitempty,oneof=and or"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the lifecycle state from the activation timestamps.
func (w *Workflow) Status() WorkflowStatus {
	switch {
	case w.TimeActive == nil:
		return WorkflowStatusDraft
	case w.TimeDeactive == nil:
		return WorkflowStatusActive
	default:
		return WorkflowStatusDeactivated
	}
}

// IsActive reports whether the workflow is currently evaluated by the engine.
func (w *Workflow) IsActive() bool {
	return w.Status() == WorkflowStatusActive
}

// DisplayTitleOrTitle returns the end-user facing title, falling back to the admin title.
func (w *Workflow) DisplayTitleOrTitle() string {
	if w.DisplayTitle != "" {
		return w.DisplayTitle
	}

	return w.Title
}

// RollbackDelay is the cooldown applied after a process rolls back.
func (w *Workflow) RollbackDelay() time.Duration {
	return time.Duration(w.RollbackDelaySeconds) * time.Second
}

// FinishDelay is the cooldown applied after a process finishes.
func (w *Workflow) FinishDelay() time.Duration {
	return time.Duration(w.FinishDelaySeconds) * time.Second
}

// EffectiveCombinator defaults to AND when unset.
func (w *Workflow) EffectiveCombinator() Combinator {
	if w.Combinator == CombinatorOr {
		return CombinatorOr
	}

	return CombinatorAnd
}
