package models

import "time"

// ProcessError is a parked, failed process snapshot requiring admin
// disposition. The live process row is deleted when the error is recorded.
type ProcessError struct {
	ID         string `json:"id"`
	CourseID   int64  `json:"course_id"`
	WorkflowID string `json:"workflow_id"`

	// Snapshot of the process at the moment of failure.
	StepIndex       int       `json:"step_index"`
	Waiting         bool      `json:"waiting"`
	TimeStepChanged time.Time `json:"time_step_changed"`

	Message string `json:"message"`
	Trace   string `json:"trace"`

	// Hash deduplicates repeated occurrences of the same failure.
	Hash string `json:"hash"`

	CreatedAt time.Time `json:"created_at"`
}
