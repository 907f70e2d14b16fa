// Package events defines event types and structures for workflow and
// process lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every lifecycle event; subscribers filter on the
// event_type metadata.
const Topic = "coursecycle.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Process lifecycle events.
	ProcessTriggeredEvent  EventType = "process.triggered"
	ProcessProceededEvent  EventType = "process.proceeded"
	ProcessWaitingEvent    EventType = "process.waiting"
	ProcessFinishedEvent   EventType = "process.finished"
	ProcessRolledBackEvent EventType = "process.rolledback"
	ProcessErroredEvent    EventType = "process.errored"

	// Workflow lifecycle events.
	WorkflowActivatedEvent   EventType = "workflow.activated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"

	// Step-originated events.
	NotificationSummaryEvent EventType = "notification.summary"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ProcessTriggered is published when a course passes a workflow's
// trigger chain and a process record is created.
type ProcessTriggered struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
}

func (p ProcessTriggered) GetType() EventType {
	return ProcessTriggeredEvent
}

// ProcessProceeded is published after a process advances past a step.
type ProcessProceeded struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
	StepIndex int    `json:"step_index"`
}

func (p ProcessProceeded) GetType() EventType {
	return ProcessProceededEvent
}

// ProcessWaiting is published when a step parks a process until an
// interaction or a later run resolves it.
type ProcessWaiting struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
	StepIndex int    `json:"step_index"`
}

func (p ProcessWaiting) GetType() EventType {
	return ProcessWaitingEvent
}

// ProcessFinished is published when a process advances past its last
// step and is removed.
type ProcessFinished struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
}

func (p ProcessFinished) GetType() EventType {
	return ProcessFinishedEvent
}

// ProcessRolledBack is published after a rollback pass completes and
// the process is removed.
type ProcessRolledBack struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
	FromStep  int    `json:"from_step"`
	ToStep    int    `json:"to_step"`
}

func (p ProcessRolledBack) GetType() EventType {
	return ProcessRolledBackEvent
}

// ProcessErrored is published when a failed process is parked in the
// error store.
type ProcessErrored struct {
	BaseEvent

	ProcessID string `json:"process_id"`
	CourseID  int64  `json:"course_id"`
	StepIndex int    `json:"step_index"`
	Message   string `json:"message"`
}

func (p ProcessErrored) GetType() EventType {
	return ProcessErroredEvent
}

type WorkflowActivated struct {
	BaseEvent

	Title string `json:"title"`
}

func (w WorkflowActivated) GetType() EventType {
	return WorkflowActivatedEvent
}

type WorkflowDeactivated struct {
	BaseEvent

	Title            string `json:"title"`
	ProcessesAborted int    `json:"processes_aborted"`
}

func (w WorkflowDeactivated) GetType() EventType {
	return WorkflowDeactivatedEvent
}

// NotificationSummary is published once per advancement pass by the
// notify step, rolling all per-course notifications into one message.
type NotificationSummary struct {
	BaseEvent

	Subject   string `json:"subject"`
	Recipient string `json:"recipient,omitempty"`
	Notified  int64  `json:"notified"`
}

func (n NotificationSummary) GetType() EventType {
	return NotificationSummaryEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
