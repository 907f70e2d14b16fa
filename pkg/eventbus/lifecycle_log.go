package eventbus

import (
	"context"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/events"
)

// RegisterLifecycleLog attaches handlers that log the engine's
// lifecycle events, giving single-binary deployments an audit trail
// without a separate consumer process. Subscribe still has to be
// called to start delivery.
func RegisterLifecycleLog(bus EventSubscriber, logger *slog.Logger) error {
	handlers := map[events.EventType]EventHandler{
		events.ProcessErroredEvent: func(ctx context.Context, event any) error {
			errored, ok := event.(*events.ProcessErrored)
			if !ok {
				return nil
			}

			logger.WarnContext(ctx, "process errored",
				"process_id", errored.ProcessID,
				"course_id", errored.CourseID,
				"step", errored.StepIndex,
				"message", errored.Message)

			return nil
		},
		events.ProcessFinishedEvent: func(ctx context.Context, event any) error {
			finished, ok := event.(*events.ProcessFinished)
			if !ok {
				return nil
			}

			logger.InfoContext(ctx, "process finished",
				"process_id", finished.ProcessID,
				"course_id", finished.CourseID,
				"workflow_id", finished.WorkflowID)

			return nil
		},
		events.ProcessRolledBackEvent: func(ctx context.Context, event any) error {
			rolledBack, ok := event.(*events.ProcessRolledBack)
			if !ok {
				return nil
			}

			logger.InfoContext(ctx, "process rolled back",
				"process_id", rolledBack.ProcessID,
				"course_id", rolledBack.CourseID,
				"from_step", rolledBack.FromStep,
				"to_step", rolledBack.ToStep)

			return nil
		},
		events.NotificationSummaryEvent: func(ctx context.Context, event any) error {
			summary, ok := event.(*events.NotificationSummary)
			if !ok {
				return nil
			}

			logger.InfoContext(ctx, "notification summary",
				"workflow_id", summary.WorkflowID,
				"subject", summary.Subject,
				"recipient", summary.Recipient,
				"notified", summary.Notified)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}
