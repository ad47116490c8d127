package handlers

import (
	"errors"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/core/services"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

const (
	msgApplicationNotFound = "Application (related_id) not found"
	msgInternalError       = "Internal server error"
	msgMethodNotAllowed    = "Method not allowed"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	// The body is JSON regardless of Content-Type.
	var req dto.CreateTaskRequest
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err, "request_id", c.Locals("request_id"))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	h.logger.Infow("task_create_request", "related_id", req.RelatedID, "task_type", req.TaskType, "request_id", c.Locals("request_id"))
	result, err := h.service.CreateTask(c.UserContext(), req.ToInput())
	if err != nil {
		return h.createTaskError(c, err)
	}

	resp := dto.CreateTaskResponse{Success: true, TaskID: result.Task.ID}
	if result.Warning != nil {
		resp.Warning = "task persisted, notification failed"
		if errors.Is(result.Warning, services.ErrNotifyTimeout) {
			resp.Warning = "task persisted, notification timed out"
		}
		h.logger.Warnw("task_create_notify_warning", "task_id", result.Task.ID, "error", result.Warning, "request_id", c.Locals("request_id"))
	}

	h.logger.Infow("task_create_success", "task_id", result.Task.ID, "stage", result.Stage)
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *TaskHandler) createTaskError(c *fiber.Ctx, err error) error {
	var stage ports.Stage
	var stageErr *services.StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}

	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.Warnw("task_create_validation_failed", "field", validationErr.Field, "error", validationErr.Message)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: validationErr.Message})
	case errors.Is(err, services.ErrApplicationNotFound):
		h.logger.Warnw("task_create_application_not_found", "stage", stage)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: msgApplicationNotFound})
	default:
		h.logger.Errorw("task_create_failed", "stage", stage, "error", err, "request_id", c.Locals("request_id"))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msgInternalError})
	}
}

// Preflight answers bare OPTIONS requests on the create routes.
func (h *TaskHandler) Preflight(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("ok")
}

func (h *TaskHandler) MethodNotAllowed(c *fiber.Ctx) error {
	h.logger.Warnw("task_create_method_not_allowed", "method", c.Method(), "path", c.Path())
	return c.Status(fiber.StatusMethodNotAllowed).JSON(dto.ErrorResponse{Error: msgMethodNotAllowed})
}

func (h *TaskHandler) GetTodayTasks(c *fiber.Ctx) error {
	h.logger.Infow("task_list_today_request")
	tasks, err := h.service.GetTodayTasks(c.UserContext())
	if err != nil {
		h.logger.Errorw("task_list_today_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to load tasks"})
	}

	h.logger.Infow("task_list_today_success", "count", len(tasks))
	return c.JSON(dto.TasksToResponse(tasks))
}

func (h *TaskHandler) CompleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid ID"})
	}

	h.logger.Infow("task_complete_request", "id", id)
	task, err := h.service.CompleteTask(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Warnw("task_complete_not_found", "id", id)
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Task not found"})
		}
		h.logger.Errorw("task_complete_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to update task status"})
	}

	h.logger.Infow("task_complete_success", "id", id)
	return c.JSON(dto.TaskToResponse(task))
}
