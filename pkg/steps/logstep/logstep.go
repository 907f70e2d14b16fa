// Package logstep is the smallest possible step: it logs the course
// passing through and proceeds.
package logstep

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/protocol"
)

const (
	// Name is the subplugin type name instances reference.
	Name = "logstep"

	settingMessage = "message"
)

type Step struct{}

func New() *Step {
	return &Step{}
}

func (s *Step) Name() string { return Name }

func (s *Step) ProcessCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	message, _ := req.Settings[settingMessage].(string)
	if message == "" {
		message = "course passed through"
	}

	req.Logger.InfoContext(ctx, message,
		"process_id", req.ProcessID,
		"course_id", req.Course.ID,
		"step", req.Instance.InstanceName)

	return protocol.VerdictProceed, nil
}

func (s *Step) ProcessWaitingCourse(ctx context.Context, req protocol.StepRequest) (protocol.StepVerdict, error) {
	return s.ProcessCourse(ctx, req)
}

func (s *Step) RollbackCourse(_ context.Context, _ protocol.StepRequest) error { return nil }

func (s *Step) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{
			Name:        settingMessage,
			Type:        protocol.SettingTypeString,
			Description: "Log line emitted for every course entering this step.",
		},
	}
}
