package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowStatus(t *testing.T) {
	now := time.Now().UTC()

	draft := &Workflow{Title: "Archive old courses"}
	assert.Equal(t, WorkflowStatusDraft, draft.Status())
	assert.False(t, draft.IsActive())

	active := &Workflow{Title: "Archive old courses", TimeActive: &now}
	assert.Equal(t, WorkflowStatusActive, active.Status())
	assert.True(t, active.IsActive())

	deactivated := &Workflow{Title: "Archive old courses", TimeActive: &now, TimeDeactive: &now}
	assert.Equal(t, WorkflowStatusDeactivated, deactivated.Status())
	assert.False(t, deactivated.IsActive())
}

func TestWorkflowDisplayTitleFallback(t *testing.T) {
	w := &Workflow{Title: "Retire idle courses"}
	assert.Equal(t, "Retire idle courses", w.DisplayTitleOrTitle())

	w.DisplayTitle = "Your course is being retired"
	assert.Equal(t, "Your course is being retired", w.DisplayTitleOrTitle())
}

func TestWorkflowDelays(t *testing.T) {
	w := &Workflow{RollbackDelaySeconds: 3600, FinishDelaySeconds: 86400}
	assert.Equal(t, time.Hour, w.RollbackDelay())
	assert.Equal(t, 24*time.Hour, w.FinishDelay())
}

func TestWorkflowEffectiveCombinator(t *testing.T) {
	assert.Equal(t, CombinatorAnd, (&Workflow{}).EffectiveCombinator())
	assert.Equal(t, CombinatorAnd, (&Workflow{Combinator: CombinatorAnd}).EffectiveCombinator())
	assert.Equal(t, CombinatorOr, (&Workflow{Combinator: CombinatorOr}).EffectiveCombinator())
}

func TestStandInCourse(t *testing.T) {
	course := StandInCourse(42)
	assert.Equal(t, int64(42), course.ID)
	assert.True(t, course.Deleted())

	real := &Course{ID: 42, FullName: "Algebra I", ShortName: "alg1", CategoryID: 3}
	assert.False(t, real.Deleted())
}

func TestDelayEntryGlobal(t *testing.T) {
	assert.True(t, (&DelayEntry{CourseID: 1}).Global())
	assert.False(t, (&DelayEntry{CourseID: 1, WorkflowID: "wf-1"}).Global())
}
