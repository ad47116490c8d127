package ports

import (
	"context"
	"time"

	"github.com/followup/backend/internal/domain"
)

// ApplicationRepository is read-only from the task pipeline's point of view.
type ApplicationRepository interface {
	// GetTenantID returns gorm.ErrRecordNotFound when no application has the id.
	GetTenantID(ctx context.Context, applicationID string) (string, error)
	Create(ctx context.Context, app *domain.Application) error
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
}

type TaskRepository interface {
	Insert(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error)
	MarkCompleted(ctx context.Context, id string) error
}
