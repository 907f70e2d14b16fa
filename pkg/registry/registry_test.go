package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock trigger for testing
type mockTrigger struct {
	name   string
	manual bool
}

func (m *mockTrigger) Name() string { return m.name }
func (m *mockTrigger) Manual() bool { return m.manual }

func (m *mockTrigger) CheckCourse(context.Context, protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	return protocol.VerdictSelect, nil
}

func (m *mockTrigger) CandidateFilter(context.Context, *models.TriggerInstance, map[string]any) (*catalog.Filter, error) {
	return nil, nil
}

func (m *mockTrigger) ValidateSettings(map[string]any) []string { return nil }

func (m *mockTrigger) Settings() []protocol.SettingDescriptor { return nil }

// Mock step for testing
type mockStep struct {
	name string
}

func (m *mockStep) Name() string { return m.name }

func (m *mockStep) ProcessCourse(context.Context, protocol.StepRequest) (protocol.StepVerdict, error) {
	return protocol.VerdictProceed, nil
}

func (m *mockStep) ProcessWaitingCourse(context.Context, protocol.StepRequest) (protocol.StepVerdict, error) {
	return protocol.VerdictProceed, nil
}

func (m *mockStep) RollbackCourse(context.Context, protocol.StepRequest) error { return nil }

func (m *mockStep) Settings() []protocol.SettingDescriptor { return nil }

// Mock interactive step for testing
type mockInteractiveStep struct {
	mockStep
}

func (m *mockInteractiveStep) HandleInteraction(context.Context, protocol.InteractionRequest) (protocol.InteractionVerdict, error) {
	return protocol.InteractionProceed, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.Default())
}

func TestRegistry_RegisterAndResolveTrigger(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterTrigger(&mockTrigger{name: "idlecourses"})

	strategy, err := reg.ResolveTrigger("idlecourses")
	require.NoError(t, err)
	assert.Equal(t, "idlecourses", strategy.Name())
}

func TestRegistry_ResolveUnknownTrigger(t *testing.T) {
	reg := newTestRegistry()

	strategy, err := reg.ResolveTrigger("nope")
	assert.Nil(t, strategy)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistry_RegisterAndResolveStep(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterStep(&mockStep{name: "logstep"})

	strategy, err := reg.ResolveStep("logstep")
	require.NoError(t, err)
	assert.Equal(t, "logstep", strategy.Name())

	_, err = reg.ResolveStep("missing")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistry_ResolveInteraction(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterStep(&mockStep{name: "plain"})
	reg.RegisterStep(&mockInteractiveStep{mockStep{name: "approve"}})

	_, ok := reg.ResolveInteraction("plain")
	assert.False(t, ok, "plain step declares no interactive capability")

	interactive, ok := reg.ResolveInteraction("approve")
	assert.True(t, ok)
	assert.NotNil(t, interactive)

	_, ok = reg.ResolveInteraction("missing")
	assert.False(t, ok)
}

func TestRegistry_Names(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterTrigger(&mockTrigger{name: "manual", manual: true})
	reg.RegisterTrigger(&mockTrigger{name: "categories"})
	reg.RegisterStep(&mockStep{name: "notify"})
	reg.RegisterStep(&mockStep{name: "logstep"})

	assert.Equal(t, []string{"categories", "manual"}, reg.TriggerNames())
	assert.Equal(t, []string{"logstep", "notify"}, reg.StepNames())
}
