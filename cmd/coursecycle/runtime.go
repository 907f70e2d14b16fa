package main

import (
	"context"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/cmd"
	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/engine"
	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/otelhelper"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/process"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/services"
	"github.com/campuskit/coursecycle/pkg/settings"
	cli "github.com/urfave/cli/v3"
)

// runtime bundles the wired-up engine shared by the subcommands.
type runtime struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	ledger      delay.Ledger
	eventBus    eventbus.EventBus
	manager     *process.Manager
	processor   *engine.Processor
	workflows   *services.WorkflowService
}

func newRuntime(ctx context.Context, command *cli.Command, logger *slog.Logger) *runtime {
	persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	eventBus := cmd.NewEventBus(command.String("event-bus"), "coursecycle", logger)
	reg := cmd.NewRegistry(logger, eventBus)
	courseCatalog := cmd.NewCatalog(ctx, logger, persist, command.Int64("site-course-id"))
	ledger := cmd.NewDelayLedger(command.String("redis-url"), persist, logger)
	settingsStore := settings.NewStore(persist.SettingsRepository(), reg, logger)

	manager := process.NewManager(persist, reg, settingsStore, courseCatalog, eventBus, logger)
	processor := engine.NewProcessor(persist, reg, settingsStore, courseCatalog, ledger, manager, logger)

	if tracer, err := otelhelper.NewTracer(ctx, "coursecycle"); err == nil {
		processor = processor.WithTracer(tracer)
	} else {
		logger.WarnContext(ctx, "tracing disabled", "error", err)
	}

	workflows := services.NewWorkflowService(persist, reg, settingsStore, courseCatalog, manager, processor, eventBus, logger)

	return &runtime{
		logger:      logger,
		persistence: persist,
		registry:    reg,
		ledger:      ledger,
		eventBus:    eventBus,
		manager:     manager,
		processor:   processor,
		workflows:   workflows,
	}
}

func (r *runtime) close(ctx context.Context) {
	err := r.eventBus.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close event bus", "error", err)
	}

	err = r.persistence.Close(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close persistence", "error", err)
	}
}

// pass runs one selection pass followed by one advancement pass, the
// unit of work both the one-shot run and the daemon schedule execute.
func (r *runtime) pass(ctx context.Context) error {
	stats, err := r.processor.CallTrigger(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "selection pass finished",
		"workflows", len(stats.Workflows), "triggered", stats.TotalTriggered())

	err = r.processor.ProcessCourses(ctx)
	if err != nil {
		return err
	}

	if store, ok := r.ledger.(*delay.Store); ok {
		purged, err := store.PurgeExpired(ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to purge expired delays", "error", err)
		} else if purged > 0 {
			r.logger.DebugContext(ctx, "purged expired delay entries", "count", purged)
		}
	}

	return nil
}
