// Package main provides the coursecycle admin API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/engine"
	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/process"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/services"
	"github.com/campuskit/coursecycle/pkg/settings"
	"github.com/campuskit/coursecycle/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	catalog     catalog.Catalog
	ledger      delay.Ledger
	eventBus    eventbus.EventBus
}

func NewAPI(
	logger *slog.Logger,
	persist persistence.Persistence,
	reg *registry.Registry,
	courseCatalog catalog.Catalog,
	ledger delay.Ledger,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persist,
		registry:    reg,
		catalog:     courseCatalog,
		ledger:      ledger,
		eventBus:    eventBus,
	}
}

func (a *API) App() *fiber.App {
	settingsStore := settings.NewStore(a.persistence.SettingsRepository(), a.registry, a.logger)
	manager := process.NewManager(a.persistence, a.registry, settingsStore, a.catalog, a.eventBus, a.logger)
	processor := engine.NewProcessor(a.persistence, a.registry, settingsStore, a.catalog, a.ledger, manager, a.logger)

	workflowService := services.NewWorkflowService(
		a.persistence, a.registry, settingsStore, a.catalog, manager, processor, a.eventBus, a.logger)
	processService := services.NewProcessService(a.persistence, a.catalog, nil, a.logger)

	handlers := web.NewAPIHandlers(workflowService, processService, processor, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Coursecycle API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/subplugins", handlers.GetSubplugins)

	workflows := app.Group("/workflows")
	workflows.Get("/", handlers.GetWorkflows)
	workflows.Post("/", handlers.CreateWorkflow)
	workflows.Get("/:id", handlers.GetWorkflow)
	workflows.Put("/:id", handlers.UpdateWorkflow)
	workflows.Delete("/:id", handlers.DeleteWorkflow)
	workflows.Post("/:id/activate", handlers.ActivateWorkflow)
	workflows.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	workflows.Post("/:id/reorder", handlers.ReorderWorkflow)
	workflows.Get("/:id/processes", handlers.GetWorkflowProcesses)

	workflows.Get("/:id/triggers", handlers.GetTriggers)
	workflows.Post("/:id/triggers", handlers.AddTrigger)
	workflows.Delete("/:id/triggers/:instanceId", handlers.RemoveTrigger)
	workflows.Post("/:id/triggers/:instanceId/fire", handlers.FireManualTrigger)

	workflows.Get("/:id/steps", handlers.GetSteps)
	workflows.Post("/:id/steps", handlers.AddStep)
	workflows.Delete("/:id/steps/:instanceId", handlers.RemoveStep)

	processes := app.Group("/processes")
	processes.Get("/", handlers.GetProcesses)
	processes.Get("/:id", handlers.GetProcess)
	processes.Post("/:id/interaction", handlers.ResolveInteraction)

	processErrors := app.Group("/process-errors")
	processErrors.Get("/", handlers.GetProcessErrors)
	processErrors.Delete("/:id", handlers.DeleteProcessError)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
