package delay_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*delay.Store, time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := delay.NewStore(memory.NewPersistence().DelayRepository(), slog.Default()).
		WithNow(func() time.Time { return now })

	return store, now
}

func TestStoreZeroDurationIsNoOp(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{ID: "wf-1"}

	require.NoError(t, store.SetCourseDelayed(ctx, 42, false, workflow))
	require.NoError(t, store.SetCourseDelayed(ctx, 42, true, workflow))

	delayed, err := delay.Delayed(ctx, store, 42, "wf-1", now)
	require.NoError(t, err)
	assert.False(t, delayed)
}

func TestStorePerWorkflowDelay(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{ID: "wf-1", FinishDelaySeconds: 3600}

	require.NoError(t, store.SetCourseDelayed(ctx, 42, false, workflow))

	until, err := store.CourseDelayedUntilForWorkflow(ctx, 42, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), until)

	global, err := store.CourseDelayedUntil(ctx, 42)
	require.NoError(t, err)
	assert.True(t, global.IsZero())

	delayed, err := delay.Delayed(ctx, store, 42, "wf-1", now)
	require.NoError(t, err)
	assert.True(t, delayed)

	delayed, err = delay.Delayed(ctx, store, 42, "wf-other", now)
	require.NoError(t, err)
	assert.False(t, delayed, "per-workflow delay must not affect other workflows")
}

func TestStoreGlobalDelay(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:                   "wf-1",
		RollbackDelaySeconds: 1800,
		DelayForAllWorkflows: true,
	}

	require.NoError(t, store.SetCourseDelayed(ctx, 7, true, workflow))

	global, err := store.CourseDelayedUntil(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), global)

	delayed, err := delay.Delayed(ctx, store, 7, "wf-other", now)
	require.NoError(t, err)
	assert.True(t, delayed, "global delay applies to every workflow")

	ids, err := store.GloballyDelayedCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
}

func TestDelayedUsesLaterExpiry(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetCourseDelayed(ctx, 42, false, &models.Workflow{
		ID:                   "wf-1",
		FinishDelaySeconds:   60,
		DelayForAllWorkflows: true,
	}))
	require.NoError(t, store.SetCourseDelayed(ctx, 42, false, &models.Workflow{
		ID:                 "wf-1",
		FinishDelaySeconds: 7200,
	}))

	delayed, err := delay.Delayed(ctx, store, 42, "wf-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, delayed, "later per-workflow expiry wins over lapsed global one")

	delayed, err = delay.Delayed(ctx, store, 42, "wf-1", now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, delayed)
}

func TestPurgeExpired(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetCourseDelayed(ctx, 42, false, &models.Workflow{
		ID:                 "wf-1",
		FinishDelaySeconds: 60,
	}))
	require.NoError(t, store.SetCourseDelayed(ctx, 43, false, &models.Workflow{
		ID:                 "wf-1",
		FinishDelaySeconds: 7200,
	}))

	store.WithNow(func() time.Time { return now.Add(time.Hour) })

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	ids, err := store.DelayedCoursesForWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{43}, ids)
}
