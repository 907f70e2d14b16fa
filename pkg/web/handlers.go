// Package web provides the HTTP handlers of the workflow admin API.
package web

import (
	"net/http"
	"time"

	"github.com/campuskit/coursecycle/pkg/engine"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/services"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.WorkflowService
	processService  *services.ProcessService
	processor       *engine.Processor
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.WorkflowService,
	processService *services.ProcessService,
	processor *engine.Processor,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		processService:  processService,
		processor:       processor,
		registry:        reg,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req services.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.workflowService.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req services.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.workflowService.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	var req DeactivateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	workflow, err := h.workflowService.Deactivate(c.Context(), c.Params("id"), req.AbortProcesses)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) ReorderWorkflow(c fiber.Ctx) error {
	var req ReorderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.OtherID == "" {
		return badRequest(c, "other_id is required")
	}

	err := h.workflowService.Reorder(c.Context(), c.Params("id"), req.OtherID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	triggers, err := h.workflowService.ListTriggers(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"triggers": triggers})
}

func (h *APIHandlers) AddTrigger(c fiber.Ctx) error {
	var req services.AddInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	instance, err := h.workflowService.AddTrigger(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(instance)
}

func (h *APIHandlers) RemoveTrigger(c fiber.Ctx) error {
	err := h.workflowService.RemoveTrigger(c.Context(), c.Params("id"), c.Params("instanceId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetSteps(c fiber.Ctx) error {
	steps, err := h.workflowService.ListSteps(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"steps": steps})
}

func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	var req services.AddInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	instance, err := h.workflowService.AddStep(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(instance)
}

func (h *APIHandlers) RemoveStep(c fiber.Ctx) error {
	err := h.workflowService.RemoveStep(c.Context(), c.Params("id"), c.Params("instanceId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// FireManualTrigger starts a process for one course through a manual
// trigger and continues it while a person is present.
func (h *APIHandlers) FireManualTrigger(c fiber.Ctx) error {
	var req ManualTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.CourseID == 0 {
		return badRequest(c, "course_id is required")
	}

	done, err := h.workflowService.ManualTrigger(c.Context(), c.Params("id"), c.Params("instanceId"), req.CourseID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"done": done})
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	processes, err := h.processService.ListProcesses(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"processes": processes})
}

func (h *APIHandlers) GetWorkflowProcesses(c fiber.Ctx) error {
	processes, err := h.processService.ListByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"processes": processes})
}

func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	process, err := h.processService.GetProcess(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(process)
}

// ResolveInteraction delivers an admin's decision to the process's
// current step.
func (h *APIHandlers) ResolveInteraction(c fiber.Ctx) error {
	var req InteractionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	done, err := h.processor.ResolveInteraction(c.Context(), c.Params("id"), req.Action)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"done": done})
}

func (h *APIHandlers) GetProcessErrors(c fiber.Ctx) error {
	processErrors, err := h.processService.ListErrors(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"errors": processErrors})
}

func (h *APIHandlers) DeleteProcessError(c fiber.Ctx) error {
	err := h.processService.DeleteError(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetSubplugins lists the installed subplugin inventory, used by the
// workflow editor to populate its pickers.
func (h *APIHandlers) GetSubplugins(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"triggers": h.registry.TriggerNames(),
		"steps":    h.registry.StepNames(),
	})
}
