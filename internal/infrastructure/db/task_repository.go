package db

import (
	"context"
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

// Insert writes a single row; status defaults to open when unset.
func (r *taskRepository) Insert(ctx context.Context, task *domain.Task) error {
	if task.Status == "" {
		task.Status = domain.TaskStatusOpen
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_insert_failed", "related_id", task.RelatedID, "type", task.Type, "error", err)
		return err
	}
	r.log.Infow("task_repo_insert_ok", "id", task.ID, "related_id", task.RelatedID, "type", task.Type)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("status <> ?", domain.TaskStatusCompleted).
		Where("due_at >= ? AND due_at <= ?", from, to).
		Order("due_at asc").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_list_due_failed", "from", from, "to", to, "error", err)
		return nil, err
	}
	r.log.Infow("task_repo_list_due_ok", "count", len(tasks))
	return tasks, nil
}

// MarkCompleted returns gorm.ErrRecordNotFound when no row has the id.
func (r *taskRepository) MarkCompleted(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", id).
		Update("status", domain.TaskStatusCompleted)
	if res.Error != nil {
		r.log.Errorw("task_repo_complete_failed", "id", id, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.Infow("task_repo_complete_ok", "id", id)
	return nil
}
