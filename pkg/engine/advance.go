package engine

import (
	"context"
	"fmt"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/otelhelper"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// batchHooks tracks the lazily-initialized per-subplugin accumulators
// of one advancement pass.
type batchHooks struct {
	runs map[string]*protocol.BatchRun
}

// runFor returns the subplugin's accumulator, firing the PreBatch hook
// the first time a BatchAware step type appears in the pass.
func (b *batchHooks) runFor(ctx context.Context, name string, strategy protocol.StepStrategy) (*protocol.BatchRun, error) {
	if run, ok := b.runs[name]; ok {
		return run, nil
	}

	run := protocol.NewBatchRun()
	b.runs[name] = run

	if aware, ok := strategy.(protocol.BatchAware); ok {
		err := aware.PreBatch(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("pre-batch hook for %s: %w", name, err)
		}
	}

	return run, nil
}

// ProcessCourses runs the advancement pass: every live process,
// regardless of workflow, is driven through its current step until it
// waits, finishes, rolls back or errors. A process may traverse several
// steps within one pass as long as each step proceeds immediately.
func (p *Processor) ProcessCourses(ctx context.Context) error {
	ctx, span := p.startSpan(ctx, "engine.process_courses")
	defer span.End()

	processes, err := p.persistence.ProcessRepository().GetAll(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to list processes: %w", err)
	}

	hooks := &batchHooks{runs: make(map[string]*protocol.BatchRun)}

	for _, proc := range processes {
		err := p.advanceProcess(ctx, proc, hooks)
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.ProcessIDKey, proc.ID))

			return err
		}
	}

	for name, run := range hooks.runs {
		strategy, err := p.registry.ResolveStep(name)
		if err != nil {
			continue
		}

		if aware, ok := strategy.(protocol.BatchAware); ok {
			err := aware.PostBatch(ctx, run)
			if err != nil {
				p.logger.ErrorContext(ctx, "post-batch hook failed", "subplugin", name, "error", err)
			}
		}
	}

	span.SetAttributes(attribute.Int("coursecycle.run.processes", len(processes)))

	return nil
}

// advanceProcess drives one process. Step failures are parked as
// process errors; only infrastructure failures propagate and abort the
// batch.
func (p *Processor) advanceProcess(ctx context.Context, proc *models.Process, hooks *batchHooks) error {
	workflow, err := p.persistence.WorkflowRepository().GetByID(ctx, proc.WorkflowID)
	if err != nil {
		if !persistence.IsWorkflowNotFound(err) {
			return fmt.Errorf("failed to resolve workflow %s: %w", proc.WorkflowID, err)
		}

		return p.manager.InsertError(ctx, proc, fmt.Errorf("owning workflow %s no longer exists", proc.WorkflowID))
	}

	course, err := p.catalog.GetCourse(ctx, proc.CourseID)
	if err != nil {
		if !catalog.IsCourseNotFound(err) {
			return fmt.Errorf("failed to resolve course %d: %w", proc.CourseID, err)
		}

		// The backing entity may vanish out-of-band; steps run against
		// a stand-in carrying only the id.
		course = models.StandInCourse(proc.CourseID)
	}

	for iteration := 0; ; iteration++ {
		if iteration >= p.stepCap {
			return p.manager.InsertError(ctx, proc,
				fmt.Errorf("process traversed %d steps in one run, parking as misbehaving", iteration))
		}

		if proc.StepIndex == 0 {
			advanced, ok, err := p.manager.Proceed(ctx, proc)
			if err != nil {
				return err
			}

			if !ok {
				return p.applyDelay(ctx, proc.CourseID, false, workflow)
			}

			proc = advanced

			continue
		}

		instance, err := p.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, proc.StepIndex)
		if err != nil {
			if !persistence.IsStepNotFound(err) {
				return fmt.Errorf("failed to resolve step %d: %w", proc.StepIndex, err)
			}

			return p.manager.InsertError(ctx, proc,
				fmt.Errorf("no step instance at index %d", proc.StepIndex))
		}

		strategy, err := p.registry.ResolveStep(instance.Subplugin)
		if err != nil {
			// Configuration error: the workflow makes no progress until
			// an admin installs the subplugin, but the process survives.
			p.logger.WarnContext(ctx, "skipping process, step subplugin not registered",
				"process_id", proc.ID, "subplugin", instance.Subplugin)

			return nil
		}

		instanceSettings, err := p.settings.Get(ctx, instance.ID, models.KindStep, instance.Subplugin)
		if err != nil {
			return fmt.Errorf("failed to load step settings: %w", err)
		}

		run, err := hooks.runFor(ctx, instance.Subplugin, strategy)
		if err != nil {
			return err
		}

		request := protocol.StepRequest{
			ProcessID: proc.ID,
			Course:    course,
			Instance:  instance,
			Settings:  instanceSettings,
			Data:      p.manager.Data(proc.ID),
			Batch:     run,
			Logger:    p.logger,
		}

		verdict, err := p.invokeStep(ctx, strategy, proc.Waiting, request)
		if err != nil {
			return p.manager.InsertError(ctx, proc, err)
		}

		switch verdict {
		case protocol.VerdictWaiting:
			_, err := p.manager.SetWaiting(ctx, proc)

			return err
		case protocol.VerdictProceed:
			advanced, ok, err := p.manager.Proceed(ctx, proc)
			if err != nil {
				return err
			}

			if !ok {
				return p.applyDelay(ctx, proc.CourseID, false, workflow)
			}

			proc = advanced
		case protocol.VerdictRollback:
			err := p.applyDelay(ctx, proc.CourseID, true, workflow)
			if err != nil {
				return err
			}

			return p.manager.Rollback(ctx, proc)
		default:
			return p.manager.InsertError(ctx, proc,
				fmt.Errorf("step %s returned unknown verdict %q", instance.Subplugin, verdict))
		}
	}
}

// invokeStep dispatches to the waiting or normal entry point and
// converts a panicking step strategy into a plain error.
func (p *Processor) invokeStep(
	ctx context.Context,
	strategy protocol.StepStrategy,
	waiting bool,
	request protocol.StepRequest,
) (verdict protocol.StepVerdict, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("step %s panicked: %v", strategy.Name(), recovered)
		}
	}()

	if waiting {
		return strategy.ProcessWaitingCourse(ctx, request)
	}

	return strategy.ProcessCourse(ctx, request)
}

func (p *Processor) applyDelay(ctx context.Context, courseID int64, rollback bool, workflow *models.Workflow) error {
	err := p.ledger.SetCourseDelayed(ctx, courseID, rollback, workflow)
	if err != nil {
		return fmt.Errorf("failed to apply delay for course %d: %w", courseID, err)
	}

	return nil
}
