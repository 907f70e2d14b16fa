package web

// DeactivateRequest controls what happens to a deactivated workflow's
// running processes.
type DeactivateRequest struct {
	AbortProcesses bool `json:"abort_processes"`
}

// ReorderRequest names the workflow to swap selection order with.
type ReorderRequest struct {
	OtherID string `json:"other_id"`
}

// ManualTriggerRequest names the course an admin fires a manual
// trigger for.
type ManualTriggerRequest struct {
	CourseID int64 `json:"course_id"`
}

// InteractionRequest carries an admin's decision on a waiting step.
type InteractionRequest struct {
	Action string `json:"action"`
}
