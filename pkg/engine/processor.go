// Package engine implements the workflow processor: the selection pass
// that turns trigger verdicts into new processes and the advancement
// pass that drives every live process through its steps.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/otelhelper"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/process"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/settings"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultStepCap bounds how many steps one process may traverse within
// a single advancement pass. A step strategy stuck in a proceed loop is
// parked as a process error instead of stalling the batch.
const defaultStepCap = 100

// Processor orchestrates the two batch passes and interactive
// continuation. It assumes a single instance runs at a time;
// serialization across deployments is the scheduler's concern.
type Processor struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	settings    *settings.Store
	catalog     catalog.Catalog
	ledger      delay.Ledger
	manager     *process.Manager
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
	stepCap     int
}

func NewProcessor(
	persist persistence.Persistence,
	reg *registry.Registry,
	settingsStore *settings.Store,
	courseCatalog catalog.Catalog,
	ledger delay.Ledger,
	manager *process.Manager,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		persistence: persist,
		registry:    reg,
		settings:    settingsStore,
		catalog:     courseCatalog,
		ledger:      ledger,
		manager:     manager,
		logger:      logger,
		now:         time.Now,
		stepCap:     defaultStepCap,
	}
}

// WithTracer enables span creation around the batch passes.
func (p *Processor) WithTracer(tracer trace.Tracer) *Processor {
	p.tracer = tracer

	return p
}

// WithNow overrides the clock, for tests.
func (p *Processor) WithNow(now func() time.Time) *Processor {
	p.now = now

	return p
}

// WorkflowStats are the per-workflow counters of one selection pass.
type WorkflowStats struct {
	WorkflowID string `json:"workflow_id"`
	Title      string `json:"title"`
	Checked    int    `json:"checked"`
	Triggered  int    `json:"triggered"`
	Excluded   int    `json:"excluded"`
}

// RunStats aggregates one selection pass.
type RunStats struct {
	Workflows []WorkflowStats `json:"workflows"`
}

func (s *RunStats) TotalTriggered() int {
	total := 0
	for _, workflow := range s.Workflows {
		total += workflow.Triggered
	}

	return total
}

// resolvedTrigger pairs a trigger instance with its strategy and
// cleaned settings for one pass.
type resolvedTrigger struct {
	instance *models.TriggerInstance
	strategy protocol.TriggerStrategy
	settings map[string]any
}

// CallTrigger runs the selection pass: every active automatic workflow,
// in ascending sort-index order, evaluates its trigger chain against
// the candidate courses and creates a process per selected course.
// Re-running with nothing new to do is a no-op.
func (p *Processor) CallTrigger(ctx context.Context) (*RunStats, error) {
	ctx, span := p.startSpan(ctx, "engine.call_trigger")
	defer span.End()

	workflows, err := p.persistence.WorkflowRepository().GetActiveAutomatic(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list active workflows: %w", err)
	}

	// Courses excluded for the remainder of this run: claimed by a
	// process, parked as an error, selected or excluded earlier in this
	// same pass.
	claimed, err := p.claimedCourses(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	stats := &RunStats{Workflows: make([]WorkflowStats, 0, len(workflows))}

	for _, workflow := range workflows {
		workflowStats, err := p.selectForWorkflow(ctx, workflow, claimed)
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, workflow.ID))

			return nil, err
		}

		stats.Workflows = append(stats.Workflows, *workflowStats)
	}

	span.SetAttributes(attribute.Int("coursecycle.run.triggered", stats.TotalTriggered()))

	return stats, nil
}

// claimedCourses collects every course id already owned by a live
// process or a parked process error.
func (p *Processor) claimedCourses(ctx context.Context) (map[int64]struct{}, error) {
	claimed := make(map[int64]struct{})

	processCourses, err := p.persistence.ProcessRepository().CourseIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list process courses: %w", err)
	}

	errorCourses, err := p.persistence.ProcessErrorRepository().CourseIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list process error courses: %w", err)
	}

	for _, id := range processCourses {
		claimed[id] = struct{}{}
	}

	for _, id := range errorCourses {
		claimed[id] = struct{}{}
	}

	return claimed, nil
}

// selectForWorkflow evaluates one workflow's trigger chain over its
// candidate courses, mutating the shared claimed set as it goes.
func (p *Processor) selectForWorkflow(
	ctx context.Context,
	workflow *models.Workflow,
	claimed map[int64]struct{},
) (*WorkflowStats, error) {
	workflowStats := &WorkflowStats{WorkflowID: workflow.ID, Title: workflow.Title}

	triggers, err := p.resolveTriggers(ctx, workflow)
	if err != nil {
		// Configuration errors skip the workflow for this pass; the
		// batch continues with the next one.
		p.logger.WarnContext(ctx, "skipping misconfigured workflow",
			"workflow_id", workflow.ID, "title", workflow.Title, "error", err)

		return workflowStats, nil
	}

	excludeIDs, err := p.exclusionSet(ctx, workflow, claimed)
	if err != nil {
		return nil, err
	}

	filters, err := p.candidateFilters(ctx, triggers)
	if err != nil {
		p.logger.WarnContext(ctx, "skipping workflow, candidate filter failed",
			"workflow_id", workflow.ID, "error", err)

		return workflowStats, nil
	}

	candidates, err := p.catalog.Candidates(ctx, catalog.Query{
		ExcludeIDs: excludeIDs,
		Filters:    filters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for workflow %s: %w", workflow.ID, err)
	}

	for _, course := range candidates {
		if _, taken := claimed[course.ID]; taken {
			continue
		}

		workflowStats.Checked++

		verdict, err := p.evaluateChain(ctx, workflow, triggers, course)
		if err != nil {
			p.logger.ErrorContext(ctx, "trigger evaluation failed, skipping course",
				"workflow_id", workflow.ID, "course_id", course.ID, "error", err)

			continue
		}

		switch verdict {
		case protocol.VerdictNext:
			// The course falls through to the next workflow's pass.
		case protocol.VerdictExclude:
			claimed[course.ID] = struct{}{}
			workflowStats.Excluded++
		case protocol.VerdictSelect:
			_, err := p.manager.Create(ctx, course.ID, workflow.ID)
			if err != nil {
				if persistence.IsProcessExists(err) {
					claimed[course.ID] = struct{}{}

					continue
				}

				return nil, err
			}

			claimed[course.ID] = struct{}{}
			workflowStats.Triggered++
		}
	}

	p.logger.InfoContext(ctx, "selection pass for workflow done",
		"workflow_id", workflow.ID,
		"title", workflow.Title,
		"checked", workflowStats.Checked,
		"triggered", workflowStats.Triggered,
		"excluded", workflowStats.Excluded,
	)

	return workflowStats, nil
}

// resolveTriggers loads and resolves a workflow's trigger chain in sort
// order. Zero triggers or an unknown subplugin is a configuration error.
func (p *Processor) resolveTriggers(ctx context.Context, workflow *models.Workflow) ([]resolvedTrigger, error) {
	instances, err := p.persistence.TriggerRepository().ListByWorkflow(ctx, workflow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}

	if len(instances) == 0 {
		return nil, fmt.Errorf("workflow %s has no trigger instances", workflow.ID)
	}

	triggers := make([]resolvedTrigger, 0, len(instances))

	for _, instance := range instances {
		strategy, err := p.registry.ResolveTrigger(instance.Subplugin)
		if err != nil {
			return nil, err
		}

		if strategy.Manual() {
			return nil, fmt.Errorf("manual trigger %s in automatic workflow", instance.Subplugin)
		}

		instanceSettings, err := p.settings.Get(ctx, instance.ID, models.KindTrigger, instance.Subplugin)
		if err != nil {
			return nil, fmt.Errorf("failed to load trigger settings: %w", err)
		}

		triggers = append(triggers, resolvedTrigger{
			instance: instance,
			strategy: strategy,
			settings: instanceSettings,
		})
	}

	return triggers, nil
}

// exclusionSet combines the run-local claimed set with the delay ledger
// and the site course, honoring the workflow's opt-in toggles.
func (p *Processor) exclusionSet(
	ctx context.Context,
	workflow *models.Workflow,
	claimed map[int64]struct{},
) ([]int64, error) {
	excluded := make(map[int64]struct{}, len(claimed))
	for id := range claimed {
		excluded[id] = struct{}{}
	}

	if !workflow.IncludeDelayedCourses {
		global, err := p.ledger.GloballyDelayedCourses(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list globally delayed courses: %w", err)
		}

		perWorkflow, err := p.ledger.DelayedCoursesForWorkflow(ctx, workflow.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list delayed courses for workflow: %w", err)
		}

		for _, id := range global {
			excluded[id] = struct{}{}
		}

		for _, id := range perWorkflow {
			excluded[id] = struct{}{}
		}
	}

	if !workflow.IncludeSiteCourse {
		excluded[p.catalog.SiteCourseID()] = struct{}{}
	}

	ids := make([]int64, 0, len(excluded))
	for id := range excluded {
		ids = append(ids, id)
	}

	return ids, nil
}

// candidateFilters composes every trigger's optional narrowing filter
// conjunctively.
func (p *Processor) candidateFilters(ctx context.Context, triggers []resolvedTrigger) ([]catalog.Filter, error) {
	filters := make([]catalog.Filter, 0, len(triggers))

	for _, trigger := range triggers {
		filter, err := trigger.strategy.CandidateFilter(ctx, trigger.instance, trigger.settings)
		if err != nil {
			return nil, fmt.Errorf("trigger %s: %w", trigger.instance.Subplugin, err)
		}

		if filter != nil {
			filters = append(filters, *filter)
		}
	}

	return filters, nil
}

// evaluateChain reduces the trigger chain's verdicts for one course.
//
// AND: evaluation stops at the first Exclude or Next; every trigger must
// return Select for the workflow to select the course.
// OR: the first Select wins; Exclude still vetoes the whole chain; a
// chain of only Next verdicts passes the course on.
func (p *Processor) evaluateChain(
	ctx context.Context,
	workflow *models.Workflow,
	triggers []resolvedTrigger,
	course *models.Course,
) (protocol.TriggerVerdict, error) {
	disjunctive := workflow.EffectiveCombinator() == models.CombinatorOr

	for _, trigger := range triggers {
		verdict, err := trigger.strategy.CheckCourse(ctx, protocol.CheckRequest{
			Course:   course,
			Instance: trigger.instance,
			Settings: trigger.settings,
		})
		if err != nil {
			return protocol.VerdictNext, fmt.Errorf("trigger %s: %w", trigger.instance.Subplugin, err)
		}

		switch verdict {
		case protocol.VerdictExclude:
			return protocol.VerdictExclude, nil
		case protocol.VerdictNext:
			if !disjunctive {
				return protocol.VerdictNext, nil
			}
		case protocol.VerdictSelect:
			if disjunctive {
				return protocol.VerdictSelect, nil
			}
		}
	}

	if disjunctive {
		// No trigger selected the course.
		return protocol.VerdictNext, nil
	}

	return protocol.VerdictSelect, nil
}
