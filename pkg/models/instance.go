package models

// SubpluginKind distinguishes trigger instances from step instances.
type SubpluginKind string

const (
	KindTrigger SubpluginKind = "trigger"
	KindStep    SubpluginKind = "step"
)

// TriggerInstance is a configured selection-criterion strategy owned by one workflow.
// Sort indices within a workflow are a contiguous 1..N sequence.
type TriggerInstance struct {
	ID           string `json:"id"`
	WorkflowID   string `json:"workflow_id"   validate:"required"`
	Subplugin    string `json:"subplugin"     validate:"required"`
	InstanceName string `json:"instance_name" validate:"required"`
	SortIndex    int    `json:"sort_index"    validate:"min=1"`
}

// StepInstance is a configured processing-stage strategy owned by one workflow.
type StepInstance struct {
	ID           string `json:"id"`
	WorkflowID   string `json:"workflow_id"   validate:"required"`
	Subplugin    string `json:"subplugin"     validate:"required"`
	InstanceName string `json:"instance_name" validate:"required"`
	SortIndex    int    `json:"sort_index"    validate:"min=1"`

	// RollbackTo jumps a rollback to a specific earlier step instead of
	// unwinding all the way to step 1.
	RollbackTo *int `json:"rollback_to,omitempty"`
}
