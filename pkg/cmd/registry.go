// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/registry"
)

// NewRegistry builds the subplugin registry with the builtins installed.
func NewRegistry(logger *slog.Logger, publisher eventbus.EventPublisher) *registry.Registry {
	reg := registry.NewRegistry(logger)
	registry.RegisterBuiltins(reg, publisher, logger)

	return reg
}
