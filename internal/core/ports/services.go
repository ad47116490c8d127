package ports

import (
	"context"
	"time"

	"github.com/followup/backend/internal/domain"
)

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*CreateTaskResult, error)
	GetTodayTasks(ctx context.Context) ([]domain.Task, error)
	CompleteTask(ctx context.Context, id string) (*domain.Task, error)
}

// CreateTaskInput mirrors the JSON request; DueAt stays a string so that the
// validator owns parsing.
type CreateTaskInput struct {
	RelatedID string
	TaskType  string
	DueAt     string
}

type CreateTaskResult struct {
	Task  *domain.Task
	Stage Stage
	// Warning is set when the task was persisted but the broadcast failed.
	Warning error
}

type TenantResolver interface {
	ResolveTenant(ctx context.Context, relatedID string) (string, error)
}

type TaskNotifier interface {
	NotifyTaskCreated(ctx context.Context, task *domain.Task) error
}

// Stage names a step of the task creation pipeline.
type Stage string

const (
	StageReceived       Stage = "received"
	StageValidated      Stage = "validated"
	StageTenantResolved Stage = "tenant_resolved"
	StagePersisted      Stage = "persisted"
	StageNotified       Stage = "notified"
	StageCompleted      Stage = "completed"
)

// Clock lets tests pin "now" for due date checks and day windows.
type Clock func() time.Time
