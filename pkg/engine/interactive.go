package engine

import (
	"context"
	"fmt"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

// ContinueInteractive advances a process synchronously while a person
// is present, chaining through consecutive auto-resolving interactive
// steps. It returns true when no further interaction is possible (the
// process finished, rolled back, or the batch pass will pick it up) and
// false while a step still awaits input.
func (p *Processor) ContinueInteractive(ctx context.Context, processID string) (bool, error) {
	proc, err := p.persistence.ProcessRepository().GetByID(ctx, processID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve process %s: %w", processID, err)
	}

	workflow, err := p.persistence.WorkflowRepository().GetByID(ctx, proc.WorkflowID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve workflow %s: %w", proc.WorkflowID, err)
	}

	for iteration := 0; iteration < p.stepCap; iteration++ {
		advanced, ok, err := p.manager.Proceed(ctx, proc)
		if err != nil {
			return false, err
		}

		if !ok {
			return true, p.applyDelay(ctx, proc.CourseID, false, workflow)
		}

		proc = advanced

		instance, err := p.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, proc.StepIndex)
		if err != nil {
			return false, fmt.Errorf("failed to resolve step %d: %w", proc.StepIndex, err)
		}

		interaction, ok := p.registry.ResolveInteraction(instance.Subplugin)
		if !ok {
			// No interactive capability; the batch advancement pass
			// continues this process later.
			return true, nil
		}

		verdict, err := p.handleInteraction(ctx, proc, instance, interaction, "")
		if err != nil {
			return false, err
		}

		switch verdict {
		case protocol.InteractionStillProcessing:
			return false, nil
		case protocol.InteractionNoAction:
			return true, nil
		case protocol.InteractionRollback:
			err := p.applyDelay(ctx, proc.CourseID, true, workflow)
			if err != nil {
				return false, err
			}

			return true, p.manager.Rollback(ctx, proc)
		case protocol.InteractionProceed:
			// Loop: proceed into the next step.
		}
	}

	return false, fmt.Errorf("interactive continuation for process %s exceeded %d steps", processID, p.stepCap)
}

// ResolveInteraction delivers a UI-originated action (e.g. "approve")
// to the process's current step and continues the process per the
// step's interaction verdict. The boolean follows ContinueInteractive.
func (p *Processor) ResolveInteraction(ctx context.Context, processID, action string) (bool, error) {
	proc, err := p.persistence.ProcessRepository().GetByID(ctx, processID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve process %s: %w", processID, err)
	}

	workflow, err := p.persistence.WorkflowRepository().GetByID(ctx, proc.WorkflowID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve workflow %s: %w", proc.WorkflowID, err)
	}

	if proc.StepIndex < 1 {
		return p.ContinueInteractive(ctx, processID)
	}

	instance, err := p.persistence.StepRepository().GetAt(ctx, proc.WorkflowID, proc.StepIndex)
	if err != nil {
		return false, fmt.Errorf("failed to resolve step %d: %w", proc.StepIndex, err)
	}

	interaction, ok := p.registry.ResolveInteraction(instance.Subplugin)
	if !ok {
		return true, nil
	}

	verdict, err := p.handleInteraction(ctx, proc, instance, interaction, action)
	if err != nil {
		return false, err
	}

	switch verdict {
	case protocol.InteractionStillProcessing:
		return false, nil
	case protocol.InteractionNoAction:
		return true, nil
	case protocol.InteractionRollback:
		err := p.applyDelay(ctx, proc.CourseID, true, workflow)
		if err != nil {
			return false, err
		}

		return true, p.manager.Rollback(ctx, proc)
	case protocol.InteractionProceed:
		return p.ContinueInteractive(ctx, processID)
	}

	return true, nil
}

func (p *Processor) handleInteraction(
	ctx context.Context,
	proc *models.Process,
	instance *models.StepInstance,
	interaction protocol.Interactive,
	action string,
) (protocol.InteractionVerdict, error) {
	course, err := p.catalog.GetCourse(ctx, proc.CourseID)
	if err != nil {
		if !catalog.IsCourseNotFound(err) {
			return protocol.InteractionNoAction, fmt.Errorf("failed to resolve course %d: %w", proc.CourseID, err)
		}

		course = models.StandInCourse(proc.CourseID)
	}

	instanceSettings, err := p.settings.Get(ctx, instance.ID, models.KindStep, instance.Subplugin)
	if err != nil {
		return protocol.InteractionNoAction, fmt.Errorf("failed to load step settings: %w", err)
	}

	verdict, err := interaction.HandleInteraction(ctx, protocol.InteractionRequest{
		StepRequest: protocol.StepRequest{
			ProcessID: proc.ID,
			Course:    course,
			Instance:  instance,
			Settings:  instanceSettings,
			Data:      p.manager.Data(proc.ID),
			Logger:    p.logger,
		},
		Action: action,
	})
	if err != nil {
		return protocol.InteractionNoAction, fmt.Errorf("interaction for step %s: %w", instance.Subplugin, err)
	}

	return verdict, nil
}
