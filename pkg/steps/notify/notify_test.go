package notify_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/events"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/steps/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	published []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func request(run *protocol.BatchRun, courseID int64) protocol.StepRequest {
	return protocol.StepRequest{
		ProcessID: "p-1",
		Course:    &models.Course{ID: courseID},
		Instance:  &models.StepInstance{ID: "s-1", WorkflowID: "wf-1", Subplugin: notify.Name},
		Settings:  map[string]any{"subject": "Cleanup pending"},
		Batch:     run,
		Logger:    slog.Default(),
	}
}

func TestSummaryRollsUpWholePass(t *testing.T) {
	publisher := &capturePublisher{}
	step := notify.New(publisher, slog.Default())
	run := protocol.NewBatchRun()
	ctx := context.Background()

	require.NoError(t, step.PreBatch(ctx, run))

	for _, courseID := range []int64{1, 2, 3} {
		verdict, err := step.ProcessCourse(ctx, request(run, courseID))
		require.NoError(t, err)
		assert.Equal(t, protocol.VerdictProceed, verdict)
	}

	require.NoError(t, step.PostBatch(ctx, run))

	require.Len(t, publisher.published, 1)

	summary, ok := publisher.published[0].(events.NotificationSummary)
	require.True(t, ok)
	assert.Equal(t, int64(3), summary.Notified)
	assert.Equal(t, "Cleanup pending", summary.Subject)
	assert.Equal(t, "wf-1", summary.WorkflowID)
}

func TestEmptyPassPublishesNothing(t *testing.T) {
	publisher := &capturePublisher{}
	step := notify.New(publisher, slog.Default())
	run := protocol.NewBatchRun()

	require.NoError(t, step.PostBatch(context.Background(), run))

	assert.Empty(t, publisher.published)
}
