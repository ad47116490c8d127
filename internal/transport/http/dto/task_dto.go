package dto

import (
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
)

type CreateTaskRequest struct {
	RelatedID string `json:"related_id"`
	TaskType  string `json:"task_type"`
	DueAt     string `json:"due_at"`
}

func (r *CreateTaskRequest) ToInput() ports.CreateTaskInput {
	return ports.CreateTaskInput{
		RelatedID: r.RelatedID,
		TaskType:  r.TaskType,
		DueAt:     r.DueAt,
	}
}

type CreateTaskResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	// Warning is set when the task was stored but the live broadcast failed.
	Warning string `json:"warning,omitempty"`
}

type TaskResponse struct {
	ID        string            `json:"id"`
	RelatedID string            `json:"related_id"`
	Type      domain.TaskType   `json:"type"`
	Status    domain.TaskStatus `json:"status"`
	DueAt     time.Time         `json:"due_at"`
	CreatedAt time.Time         `json:"created_at"`
}

func TaskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		RelatedID: task.RelatedID,
		Type:      task.Type,
		Status:    task.Status,
		DueAt:     task.DueAt,
		CreatedAt: task.CreatedAt,
	}
}

func TasksToResponse(tasks []domain.Task) []TaskResponse {
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = TaskToResponse(&tasks[i])
	}
	return responses
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
