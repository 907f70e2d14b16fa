// Package adminapprove holds a process until an admin approves or
// rejects it. The decision lands in per-process scratch data, so a
// batch pass after the interaction resolves it too.
package adminapprove

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/protocol"
)

const (
	// Name is the subplugin type name instances reference.
	Name = "adminapprove"

	settingPrompt = "prompt"

	// Actions accepted from the UI.
	ActionApprove = "approve"
	ActionReject  = "reject"

	dataKeyDecision = "adminapprove.decision"
)

type Step struct{}

func New() *Step {
	return &Step{}
}

func (s *Step) Name() string { return Name }

// ProcessCourse parks the process until a decision exists.
func (s *Step) ProcessCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.verdictFromDecision(ctx, req)
}

func (s *Step) ProcessWaitingCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.verdictFromDecision(ctx, req)
}

// RollbackCourse clears any recorded decision so a fresh process for
// the same course starts undecided.
func (s *Step) RollbackCourse(ctx context.Context, req protocol.StepRequest) error {
	return req.Data.Set(ctx, dataKeyDecision, "")
}

func (s *Step) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{
			Name:        settingPrompt,
			Type:        protocol.SettingTypeText,
			Description: "Question shown to the approving admin.",
		},
	}
}

// HandleInteraction records the admin's decision. An empty action is
// the interactive-continuation probe and keeps the step waiting.
func (s *Step) HandleInteraction(ctx context.Context, req protocol.InteractionRequest) (protocol.InteractionVerdict, error) {
	switch req.Action {
	case ActionApprove:
		err := req.Data.Set(ctx, dataKeyDecision, ActionApprove)
		if err != nil {
			return protocol.InteractionNoAction, err
		}

		return protocol.InteractionProceed, nil
	case ActionReject:
		err := req.Data.Set(ctx, dataKeyDecision, ActionReject)
		if err != nil {
			return protocol.InteractionNoAction, err
		}

		return protocol.InteractionRollback, nil
	default:
		return protocol.InteractionStillProcessing, nil
	}
}

func (s *Step) verdictFromDecision(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	decision, ok, err := req.Data.Get(ctx, dataKeyDecision)
	if err != nil {
		return protocol.VerdictWaiting, err
	}

	if !ok {
		return protocol.VerdictWaiting, nil
	}

	switch decision {
	case ActionApprove:
		return protocol.VerdictProceed, nil
	case ActionReject:
		return protocol.VerdictRollback, nil
	default:
		return protocol.VerdictWaiting, nil
	}
}
