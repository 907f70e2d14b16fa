// Package registry resolves subplugin type names to their executable
// strategies. Strategies are registered explicitly at process startup;
// there is no reflective lookup.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/campuskit/coursecycle/pkg/protocol"
)

// ErrNotRegistered indicates an unknown subplugin type name. Callers
// must treat this as a fatal configuration error for the owning
// workflow: skip the workflow, never crash the batch.
var ErrNotRegistered = errors.New("subplugin not registered")

// Registry is a pure lookup over the installed subplugin inventory.
type Registry struct {
	logger   *slog.Logger
	triggers map[string]protocol.TriggerStrategy
	steps    map[string]protocol.StepStrategy
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		triggers: make(map[string]protocol.TriggerStrategy),
		steps:    make(map[string]protocol.StepStrategy),
	}
}

// RegisterTrigger registers a trigger strategy under its type name.
// Re-registration replaces the previous strategy.
func (r *Registry) RegisterTrigger(strategy protocol.TriggerStrategy) {
	r.triggers[strategy.Name()] = strategy
	r.logger.Debug("registered trigger subplugin", "name", strategy.Name(), "manual", strategy.Manual())
}

// RegisterStep registers a step strategy under its type name.
func (r *Registry) RegisterStep(strategy protocol.StepStrategy) {
	r.steps[strategy.Name()] = strategy
	r.logger.Debug("registered step subplugin", "name", strategy.Name())
}

// ResolveTrigger returns the strategy for a trigger type name.
func (r *Registry) ResolveTrigger(name string) (protocol.TriggerStrategy, error) {
	strategy, ok := r.triggers[name]
	if !ok {
		return nil, fmt.Errorf("trigger type '%s': %w", name, ErrNotRegistered)
	}

	return strategy, nil
}

// ResolveStep returns the strategy for a step type name.
func (r *Registry) ResolveStep(name string) (protocol.StepStrategy, error) {
	strategy, ok := r.steps[name]
	if !ok {
		return nil, fmt.Errorf("step type '%s': %w", name, ErrNotRegistered)
	}

	return strategy, nil
}

// ResolveInteraction returns the interaction capability of a step type,
// or false when the step declares none.
func (r *Registry) ResolveInteraction(name string) (protocol.Interactive, bool) {
	strategy, ok := r.steps[name]
	if !ok {
		return nil, false
	}

	interactive, ok := strategy.(protocol.Interactive)

	return interactive, ok
}

// TriggerNames lists the registered trigger type names, sorted.
func (r *Registry) TriggerNames() []string {
	names := make([]string, 0, len(r.triggers))
	for name := range r.triggers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// StepNames lists the registered step type names, sorted.
func (r *Registry) StepNames() []string {
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
