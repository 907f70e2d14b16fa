package models

import "time"

// DelayEntry excludes a course from (re-)selection until DelayedUntil.
// An empty WorkflowID means the delay applies to every workflow.
type DelayEntry struct {
	ID           string    `json:"id"`
	CourseID     int64     `json:"course_id"   validate:"required"`
	WorkflowID   string    `json:"workflow_id,omitempty"`
	DelayedUntil time.Time `json:"delayed_until"`
}

// Global reports whether the entry applies across all workflows.
func (d *DelayEntry) Global() bool {
	return d.WorkflowID == ""
}
