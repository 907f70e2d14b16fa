// Package manual provides the trigger behind admin-fired workflows.
// The selection pass never evaluates it; processes start through the
// manual-trigger service operation instead.
package manual

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

// Name is the subplugin type name instances reference.
const Name = "manual"

type Trigger struct{}

func New() *Trigger {
	return &Trigger{}
}

func (t *Trigger) Name() string { return Name }
func (t *Trigger) Manual() bool { return true }

// CheckCourse always selects: by the time it is called an admin has
// already chosen the course explicitly.
func (t *Trigger) CheckCourse(_ context.Context, _ protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	return protocol.VerdictSelect, nil
}

func (t *Trigger) CandidateFilter(_ context.Context, _ *models.TriggerInstance, _ map[string]any) (*catalog.Filter, error) {
	return nil, nil
}

func (t *Trigger) ValidateSettings(_ map[string]any) []string { return nil }

func (t *Trigger) Settings() []protocol.SettingDescriptor { return nil }
