// Package notify queues a notification for every course passing the
// step and publishes one rolled-up summary per advancement pass.
package notify

import (
	"context"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/events"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

const (
	// Name is the subplugin type name instances reference.
	Name = "notify"

	settingSubject   = "subject"
	settingRecipient = "recipient"

	counterNotified = "notified"
	valueWorkflowID = "workflow_id"
	valueSubject    = "subject"
	valueRecipient  = "recipient"
)

// Step counts notifications in the batch accumulator instead of
// sending one message per course; PostBatch publishes the summary.
type Step struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func New(publisher eventbus.EventPublisher, logger *slog.Logger) *Step {
	return &Step{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Step) Name() string { return Name }

func (s *Step) ProcessCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	if req.Batch != nil {
		req.Batch.Add(counterNotified, 1)
		req.Batch.Put(valueWorkflowID, req.Instance.WorkflowID)

		if subject, ok := req.Settings[settingSubject].(string); ok {
			req.Batch.Put(valueSubject, subject)
		}

		if recipient, ok := req.Settings[settingRecipient].(string); ok {
			req.Batch.Put(valueRecipient, recipient)
		}
	}

	req.Logger.DebugContext(ctx, "notification queued",
		"process_id", req.ProcessID, "course_id", req.Course.ID)

	return protocol.VerdictProceed, nil
}

func (s *Step) ProcessWaitingCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.ProcessCourse(ctx, req)
}

func (s *Step) RollbackCourse(_ context.Context, _ protocol.StepRequest) error { return nil }

func (s *Step) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{
			Name:        settingSubject,
			Type:        protocol.SettingTypeString,
			Description: "Subject line of the summary notification.",
		},
		{
			Name:        settingRecipient,
			Type:        protocol.SettingTypeString,
			Description: "Recipient of the summary notification.",
		},
	}
}

func (s *Step) PreBatch(_ context.Context, _ *protocol.BatchRun) error { return nil }

// PostBatch publishes the pass summary when anything was queued.
func (s *Step) PostBatch(ctx context.Context, run *protocol.BatchRun) error {
	notified := run.Counter(counterNotified)
	if notified == 0 || s.publisher == nil {
		return nil
	}

	workflowID, _ := stringValue(run, valueWorkflowID)

	subject, ok := stringValue(run, valueSubject)
	if !ok {
		subject = "Course workflow notifications"
	}

	recipient, _ := stringValue(run, valueRecipient)

	summary := events.NotificationSummary{
		BaseEvent: events.NewBaseEvent(events.NotificationSummaryEvent, workflowID),
		Subject:   subject,
		Recipient: recipient,
		Notified:  notified,
	}

	err := s.publisher.Publish(ctx, workflowID, summary)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "notification summary published",
		"workflow_id", workflowID, "notified", notified)

	return nil
}

func stringValue(run *protocol.BatchRun, key string) (string, bool) {
	raw, ok := run.Value(key)
	if !ok {
		return "", false
	}

	text, ok := raw.(string)

	return text, ok
}
