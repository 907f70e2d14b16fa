package models

import "time"

// Process is the runtime record of one course's progress through one
// workflow's steps. At most one live process exists per course.
type Process struct {
	ID         string `json:"id"`
	WorkflowID string `json:"workflow_id" validate:"required"`
	CourseID   int64  `json:"course_id"   validate:"required"`

	// StepIndex 0 means "not yet in any step"; past the last step the
	// process finishes and the record is deleted.
	StepIndex int `json:"step_index"`

	// Waiting marks the current step as needing re-polling rather than
	// re-entry processing on the next run.
	Waiting bool `json:"waiting"`

	TimeStepChanged time.Time `json:"time_step_changed"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProcessView is a read-model of a process enriched with the course's
// security context. Never persisted.
type ProcessView struct {
	Process

	CourseFullName  string `json:"course_full_name,omitempty"`
	SecurityContext string `json:"security_context,omitempty"`
}
