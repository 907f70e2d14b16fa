package eventbus_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/campuskit/coursecycle/pkg/channels/gochannel"
	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func TestSubscribeDispatchesTypedEvents(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.NotificationSummary, 1)

	require.NoError(t, bus.Handle(events.NotificationSummaryEvent, func(_ context.Context, event any) error {
		if summary, ok := event.(*events.NotificationSummary); ok {
			received <- summary
		}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	summary := events.NotificationSummary{
		BaseEvent: events.NewBaseEvent(events.NotificationSummaryEvent, "wf-1"),
		Subject:   "Course workflow notifications",
		Notified:  3,
	}
	require.NoError(t, bus.Publish(ctx, summary.WorkflowID, summary))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, summary.Subject, got.Subject)
		assert.Equal(t, int64(3), got.Notified)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubscribeSkipsUnhandledTypes(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ProcessFinished, 1)

	require.NoError(t, bus.Handle(events.ProcessFinishedEvent, func(_ context.Context, event any) error {
		if finished, ok := event.(*events.ProcessFinished); ok {
			received <- finished
		}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for activation events; the message is
	// acked and dropped.
	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowActivated{
		BaseEvent: events.NewBaseEvent(events.WorkflowActivatedEvent, "wf-1"),
		Title:     "Cleanup",
	}))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.ProcessFinished{
		BaseEvent: events.NewBaseEvent(events.ProcessFinishedEvent, "wf-1"),
		ProcessID: "p-1",
		CourseID:  42,
	}))

	select {
	case got := <-received:
		assert.Equal(t, "p-1", got.ProcessID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestLifecycleLogRecordsErroredProcesses(t *testing.T) {
	bus := newTestBus(t)

	var buf bytes.Buffer

	require.NoError(t, eventbus.RegisterLifecycleLog(bus, slog.New(slog.NewTextHandler(&buf, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// The test channel blocks publishes until the subscriber acks, so
	// the handler has run by the time Publish returns.
	require.NoError(t, bus.Publish(ctx, "wf-1", events.ProcessErrored{
		BaseEvent: events.NewBaseEvent(events.ProcessErroredEvent, "wf-1"),
		ProcessID: "p-1",
		CourseID:  42,
		StepIndex: 2,
		Message:   "step failed",
	}))

	logged := buf.String()
	assert.Contains(t, logged, "process errored")
	assert.Contains(t, logged, "p-1")
	assert.Contains(t, logged, "step failed")
}
