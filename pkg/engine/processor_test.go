package engine_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	catalogmemory "github.com/campuskit/coursecycle/pkg/catalog/memory"
	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/engine"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	persistencememory "github.com/campuskit/coursecycle/pkg/persistence/memory"
	"github.com/campuskit/coursecycle/pkg/process"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type stubTrigger struct {
	name      string
	verdicts  map[int64]protocol.TriggerVerdict
	filter    *catalog.Filter
	evaluated []int64
}

func (s *stubTrigger) Name() string { return s.name }
func (s *stubTrigger) Manual() bool { return false }

func (s *stubTrigger) CheckCourse(_ context.Context, req protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	s.evaluated = append(s.evaluated, req.Course.ID)

	if verdict, ok := s.verdicts[req.Course.ID]; ok {
		return verdict, nil
	}

	return protocol.VerdictSelect, nil
}

func (s *stubTrigger) CandidateFilter(_ context.Context, _ *models.TriggerInstance, _ map[string]any) (*catalog.Filter, error) {
	return s.filter, nil
}

func (s *stubTrigger) ValidateSettings(_ map[string]any) []string { return nil }
func (s *stubTrigger) Settings() []protocol.SettingDescriptor { return nil }

type scriptedStep struct {
	name    string
	handler func(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error)
}

func (s *scriptedStep) Name() string { return s.name }

func (s *scriptedStep) ProcessCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.handler(ctx, req)
}

func (s *scriptedStep) ProcessWaitingCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.handler(ctx, req)
}

func (s *scriptedStep) RollbackCourse(_ context.Context, _ protocol.StepRequest) error { return nil }
func (s *scriptedStep) Settings() []protocol.SettingDescriptor { return nil }

type engineFixture struct {
	processor *engine.Processor
	persist   *persistencememory.Persistence
	catalog   *catalogmemory.Catalog
	registry  *registry.Registry
	ledger    *delay.Store
	manager   *process.Manager
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	logger := slog.Default()
	persist := persistencememory.NewPersistence()
	reg := registry.NewRegistry(logger)
	courseCatalog := catalogmemory.NewCatalog()
	settingsStore := settings.NewStore(persist.SettingsRepository(), reg, logger)
	ledger := delay.NewStore(persist.DelayRepository(), logger).
		WithNow(func() time.Time { return fixedNow })
	manager := process.NewManager(persist, reg, settingsStore, courseCatalog, nil, logger).
		WithNow(func() time.Time { return fixedNow })

	processor := engine.NewProcessor(persist, reg, settingsStore, courseCatalog, ledger, manager, logger).
		WithNow(func() time.Time { return fixedNow })

	return &engineFixture{
		processor: processor,
		persist:   persist,
		catalog:   courseCatalog,
		registry:  reg,
		ledger:    ledger,
		manager:   manager,
	}
}

func (f *engineFixture) addWorkflow(t *testing.T, workflow *models.Workflow) *models.Workflow {
	t.Helper()

	if workflow.TimeActive == nil {
		active := fixedNow.Add(-time.Hour)
		workflow.TimeActive = &active
	}

	require.NoError(t, f.persist.WorkflowRepository().Save(context.Background(), workflow))

	return workflow
}

func (f *engineFixture) addTrigger(t *testing.T, workflowID, subplugin string, sortIndex int) {
	t.Helper()

	require.NoError(t, f.persist.TriggerRepository().Save(context.Background(), &models.TriggerInstance{
		WorkflowID:   workflowID,
		Subplugin:    subplugin,
		InstanceName: subplugin,
		SortIndex:    sortIndex,
	}))
}

func (f *engineFixture) addStep(t *testing.T, workflowID, subplugin string, sortIndex int) {
	t.Helper()

	require.NoError(t, f.persist.StepRepository().Save(context.Background(), &models.StepInstance{
		WorkflowID:   workflowID,
		Subplugin:    subplugin,
		InstanceName: subplugin,
		SortIndex:    sortIndex,
	}))
}

func (f *engineFixture) processFor(t *testing.T, courseID int64) *models.Process {
	t.Helper()

	proc, err := f.persist.ProcessRepository().GetByCourse(context.Background(), courseID)
	require.NoError(t, err)

	return proc
}

// A workflow with one always-selecting trigger, zero steps and a finish
// delay: selection creates the process, advancement finishes it and
// writes the delay, and the next selection pass must not reselect.
func TestZeroStepWorkflowFinishesWithDelay(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42, FullName: "Algebra"})

	workflow := fixture.addWorkflow(t, &models.Workflow{
		Title:              "Retire",
		SortIndex:          1,
		FinishDelaySeconds: 86400,
	})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTriggered())

	proc := fixture.processFor(t, 42)
	assert.Equal(t, 0, proc.StepIndex)

	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	_, err = fixture.persist.ProcessRepository().GetByCourse(ctx, 42)
	require.ErrorIs(t, err, persistence.ErrProcessNotFound)

	delayed, err := delay.Delayed(ctx, fixture.ledger, 42, workflow.ID, fixedNow)
	require.NoError(t, err)
	assert.True(t, delayed)

	stats, err = fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTriggered(), "delayed course must not be reselected")
}

// A workflow opting in to delayed courses reselects a course whose
// finish delay has not expired yet.
func TestIncludeDelayedCoursesReselects(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	workflow := fixture.addWorkflow(t, &models.Workflow{
		Title:                 "Eager",
		SortIndex:             1,
		FinishDelaySeconds:    86400,
		IncludeDelayedCourses: true,
	})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	delayed, err := delay.Delayed(ctx, fixture.ledger, 42, workflow.ID, fixedNow)
	require.NoError(t, err)
	require.True(t, delayed)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTriggered(), "opted-in workflow sees the delayed course again")
}

// A finish delay with DelayForAllWorkflows writes a global entry that
// suppresses selection by every workflow, not just the one that
// finished.
func TestGlobalDelaySuppressesOtherWorkflows(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	first := fixture.addWorkflow(t, &models.Workflow{
		Title:                "First",
		SortIndex:            1,
		FinishDelaySeconds:   86400,
		DelayForAllWorkflows: true,
	})
	second := fixture.addWorkflow(t, &models.Workflow{Title: "Second", SortIndex: 2})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, first.ID, "always", 1)
	fixture.addTrigger(t, second.ID, "always", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTriggered())
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	until, err := fixture.ledger.CourseDelayedUntil(ctx, 42)
	require.NoError(t, err)
	require.False(t, until.IsZero(), "finish wrote a global delay entry")

	stats, err = fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTriggered(), "globally delayed course is withheld from every workflow")
}

// Without DelayForAllWorkflows the finish delay binds only the
// finishing workflow; later workflows may still claim the course.
func TestWorkflowDelayIsScopedToItsWorkflow(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	first := fixture.addWorkflow(t, &models.Workflow{
		Title:              "First",
		SortIndex:          1,
		FinishDelaySeconds: 86400,
	})
	second := fixture.addWorkflow(t, &models.Workflow{Title: "Second", SortIndex: 2})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, first.ID, "always", 1)
	fixture.addTrigger(t, second.ID, "always", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTriggered())

	proc := fixture.processFor(t, 42)
	assert.Equal(t, second.ID, proc.WorkflowID)
}

// Step 1 proceeds, step 2 waits: one advancement pass walks the process
// from step 0 to step 2 and parks it waiting there.
func TestMultiStepTraversalStopsAtWaiting(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Archive", SortIndex: 1})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	fixture.registry.RegisterStep(&scriptedStep{name: "first", handler: func(_ context.Context, _ protocol.StepRequest) (protocol.StepVerdict, error) {
		return protocol.VerdictProceed, nil
	}})
	fixture.registry.RegisterStep(&scriptedStep{name: "second", handler: func(_ context.Context, _ protocol.StepRequest) (protocol.StepVerdict, error) {
		return protocol.VerdictWaiting, nil
	}})
	fixture.addStep(t, workflow.ID, "first", 1)
	fixture.addStep(t, workflow.ID, "second", 2)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	proc := fixture.processFor(t, 42)
	assert.Equal(t, 2, proc.StepIndex)
	assert.True(t, proc.Waiting)
}

// First trigger excludes course 7: the second trigger is never
// consulted and course 7 is withheld from later workflows in the same
// pass.
func TestTriggerChainShortCircuitsOnExclude(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 7})

	first := fixture.addWorkflow(t, &models.Workflow{Title: "First", SortIndex: 1})
	second := fixture.addWorkflow(t, &models.Workflow{Title: "Second", SortIndex: 2})

	excluder := &stubTrigger{name: "excluder", verdicts: map[int64]protocol.TriggerVerdict{7: protocol.VerdictExclude}}
	never := &stubTrigger{name: "never"}
	later := &stubTrigger{name: "later"}
	fixture.registry.RegisterTrigger(excluder)
	fixture.registry.RegisterTrigger(never)
	fixture.registry.RegisterTrigger(later)

	fixture.addTrigger(t, first.ID, "excluder", 1)
	fixture.addTrigger(t, first.ID, "never", 2)
	fixture.addTrigger(t, second.ID, "later", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)

	assert.Empty(t, never.evaluated, "triggers after an Exclude verdict must not run")
	assert.Empty(t, later.evaluated, "an excluded course is withheld from later workflows in the same pass")
	assert.Equal(t, 0, stats.TotalTriggered())
	assert.Equal(t, 1, stats.Workflows[0].Excluded)
}

// A Next verdict passes the course through to the next workflow in sort
// order.
func TestNextVerdictFallsThroughToLaterWorkflow(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 7})

	first := fixture.addWorkflow(t, &models.Workflow{Title: "First", SortIndex: 1})
	second := fixture.addWorkflow(t, &models.Workflow{Title: "Second", SortIndex: 2})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "passer", verdicts: map[int64]protocol.TriggerVerdict{7: protocol.VerdictNext}})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "taker"})

	fixture.addTrigger(t, first.ID, "passer", 1)
	fixture.addTrigger(t, second.ID, "taker", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)

	proc := fixture.processFor(t, 7)
	assert.Equal(t, second.ID, proc.WorkflowID)
}

// A course claimed by one workflow cannot be claimed again, whether in
// the same pass or in a later one.
func TestClaimedCourseIsNotReselected(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	first := fixture.addWorkflow(t, &models.Workflow{Title: "First", SortIndex: 1})
	second := fixture.addWorkflow(t, &models.Workflow{Title: "Second", SortIndex: 2})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, first.ID, "always", 1)
	fixture.addTrigger(t, second.ID, "always", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTriggered())

	proc := fixture.processFor(t, 42)
	assert.Equal(t, first.ID, proc.WorkflowID)

	stats, err = fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTriggered())
}

// OR combinator: the first Select wins without consulting the rest;
// Exclude still vetoes the whole chain.
func TestOrCombinator(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 1})
	fixture.catalog.Add(&models.Course{ID: 2})

	workflow := fixture.addWorkflow(t, &models.Workflow{
		Title:      "Either",
		SortIndex:  1,
		Combinator: models.CombinatorOr,
	})

	early := &stubTrigger{name: "early", verdicts: map[int64]protocol.TriggerVerdict{
		1: protocol.VerdictSelect,
		2: protocol.VerdictExclude,
	}}
	late := &stubTrigger{name: "late"}
	fixture.registry.RegisterTrigger(early)
	fixture.registry.RegisterTrigger(late)
	fixture.addTrigger(t, workflow.ID, "early", 1)
	fixture.addTrigger(t, workflow.ID, "late", 2)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalTriggered())
	assert.Equal(t, 1, stats.Workflows[0].Excluded)
	assert.Empty(t, late.evaluated, "OR stops at the first Select and at Exclude")

	proc := fixture.processFor(t, 1)
	assert.Equal(t, workflow.ID, proc.WorkflowID)
}

// AND combinator requires every trigger to select; a lone Next verdict
// passes the course on.
func TestAndCombinatorRequiresAllSelects(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 1})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Both", SortIndex: 1})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "selects"})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "passes", verdicts: map[int64]protocol.TriggerVerdict{1: protocol.VerdictNext}})
	fixture.addTrigger(t, workflow.ID, "selects", 1)
	fixture.addTrigger(t, workflow.ID, "passes", 2)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTriggered())
}

// A failing step parks its process as an error while other courses in
// the same batch advance normally.
func TestStepErrorIsolation(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 9})
	fixture.catalog.Add(&models.Course{ID: 10})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Cleanup", SortIndex: 1})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	fixture.registry.RegisterStep(&scriptedStep{name: "shaky", handler: func(_ context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
		if req.Course.ID == 9 {
			return protocol.VerdictWaiting, assert.AnError
		}

		return protocol.VerdictProceed, nil
	}})
	fixture.addStep(t, workflow.ID, "shaky", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	_, err = fixture.persist.ProcessRepository().GetByCourse(ctx, 9)
	require.ErrorIs(t, err, persistence.ErrProcessNotFound)

	parked, err := fixture.persist.ProcessErrorRepository().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Equal(t, int64(9), parked[0].CourseID)
	assert.Equal(t, 1, parked[0].StepIndex)

	_, err = fixture.persist.ProcessRepository().GetByCourse(ctx, 10)
	require.ErrorIs(t, err, persistence.ErrProcessNotFound, "course 10 finished its single step normally")
}

// A panicking step strategy is recovered and treated like a step error.
func TestStepPanicIsRecovered(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 9})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Cleanup", SortIndex: 1})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	fixture.registry.RegisterStep(&scriptedStep{name: "bomb", handler: func(_ context.Context, _ protocol.StepRequest) (protocol.StepVerdict, error) {
		panic("disk full")
	}})
	fixture.addStep(t, workflow.ID, "bomb", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	parked, err := fixture.persist.ProcessErrorRepository().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Contains(t, parked[0].Message, "disk full")
}

// A rollback verdict applies the rollback delay before the process is
// unwound and removed.
func TestRollbackVerdictAppliesDelay(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	workflow := fixture.addWorkflow(t, &models.Workflow{
		Title:                "Retreat",
		SortIndex:            1,
		RollbackDelaySeconds: 3600,
	})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	fixture.registry.RegisterStep(&scriptedStep{name: "refuser", handler: func(_ context.Context, _ protocol.StepRequest) (protocol.StepVerdict, error) {
		return protocol.VerdictRollback, nil
	}})
	fixture.addStep(t, workflow.ID, "refuser", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	_, err = fixture.persist.ProcessRepository().GetByCourse(ctx, 42)
	require.ErrorIs(t, err, persistence.ErrProcessNotFound)

	until, err := fixture.ledger.CourseDelayedUntilForWorkflow(ctx, 42, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), until)
}

// A process whose course was deleted out-of-band advances against a
// stand-in carrying only the id.
func TestDeletedCourseGetsStandIn(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42, FullName: "Algebra"})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Drain", SortIndex: 1})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	var seen *models.Course

	fixture.registry.RegisterStep(&scriptedStep{name: "observer", handler: func(_ context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
		seen = req.Course

		return protocol.VerdictProceed, nil
	}})
	fixture.addStep(t, workflow.ID, "observer", 1)

	_, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)

	fixture.catalog.Remove(42)

	require.NoError(t, fixture.processor.ProcessCourses(ctx))

	require.NotNil(t, seen)
	assert.Equal(t, int64(42), seen.ID)
	assert.True(t, seen.Deleted())
	assert.Empty(t, seen.FullName)
}

// A workflow with zero triggers is skipped for the pass; other
// workflows still run.
func TestMisconfiguredWorkflowIsSkipped(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 42})

	fixture.addWorkflow(t, &models.Workflow{Title: "Empty", SortIndex: 1})
	healthy := fixture.addWorkflow(t, &models.Workflow{Title: "Healthy", SortIndex: 2})

	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, healthy.ID, "always", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTriggered())

	proc := fixture.processFor(t, 42)
	assert.Equal(t, healthy.ID, proc.WorkflowID)
}

// The site course never enters selection unless the workflow opts in.
func TestSiteCourseExcludedByDefault(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.SetSiteCourseID(1)
	fixture.catalog.Add(&models.Course{ID: 1, FullName: "Site"})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Sweep", SortIndex: 1})
	fixture.registry.RegisterTrigger(&stubTrigger{name: "always"})
	fixture.addTrigger(t, workflow.ID, "always", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTriggered())
}

// Trigger filters narrow the candidate query conjunctively.
func TestCandidateFiltersCompose(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	fixture.catalog.Add(&models.Course{ID: 2, CategoryID: 5})
	fixture.catalog.Add(&models.Course{ID: 3, CategoryID: 6})

	workflow := fixture.addWorkflow(t, &models.Workflow{Title: "Narrow", SortIndex: 1})

	filtered := &stubTrigger{name: "filtered", filter: &catalog.Filter{
		Match: func(course *models.Course) bool { return course.CategoryID == 5 },
	}}
	fixture.registry.RegisterTrigger(filtered)
	fixture.addTrigger(t, workflow.ID, "filtered", 1)

	stats, err := fixture.processor.CallTrigger(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalTriggered())
	assert.Equal(t, []int64{2}, filtered.evaluated)
}
