package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

const asyncNotifyBudget = 30 * time.Second

type TaskServiceConfig struct {
	Resolver    ports.TenantResolver
	TaskRepo    ports.TaskRepository
	Notifier    ports.TaskNotifier
	Logger      *logger.Logger
	Clock       ports.Clock
	AsyncNotify bool
}

type taskService struct {
	resolver    ports.TenantResolver
	repo        ports.TaskRepository
	notifier    ports.TaskNotifier
	logger      *logger.Logger
	now         ports.Clock
	asyncNotify bool
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &taskService{
		resolver:    cfg.Resolver,
		repo:        cfg.TaskRepo,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		now:         now,
		asyncNotify: cfg.AsyncNotify,
	}
}

// ==================== Task Creation ====================

// CreateTask runs validate, resolve tenant, insert, notify in that order and
// stops at the first failing stage. A notification failure does not fail the
// call: the task exists, so the result carries a Warning instead.
func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*ports.CreateTaskResult, error) {
	stage := ports.StageReceived

	valid, err := ValidateCreateTask(input, s.now())
	if err != nil {
		s.logger.Warnw("task_create_invalid", "stage", stage, "related_id", input.RelatedID, "error", err)
		return nil, &StageError{Stage: stage, Err: err}
	}
	stage = ports.StageValidated

	tenantID, err := s.resolver.ResolveTenant(ctx, valid.RelatedID)
	if err != nil {
		s.logger.Warnw("task_create_tenant_unresolved", "stage", stage, "related_id", valid.RelatedID, "error", err)
		return nil, &StageError{Stage: stage, Err: err}
	}
	stage = ports.StageTenantResolved

	task := &domain.Task{
		RelatedID: valid.RelatedID,
		Type:      valid.Type,
		DueAt:     valid.DueAt,
		TenantID:  tenantID,
		Status:    domain.TaskStatusOpen,
	}
	if err := s.repo.Insert(ctx, task); err != nil {
		s.logger.Errorw("task_create_insert_failed", "stage", stage, "related_id", valid.RelatedID, "error", err)
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil, &StageError{Stage: stage, Err: err}
	}
	stage = ports.StagePersisted

	result := &ports.CreateTaskResult{Task: task, Stage: stage}

	if s.asyncNotify {
		go s.notifyDetached(ctx, task)
		result.Stage = ports.StageCompleted
		return result, nil
	}

	if err := s.notifier.NotifyTaskCreated(ctx, task); err != nil {
		s.logger.Warnw("task_create_notify_failed", "stage", stage, "task_id", task.ID, "error", err)
		result.Warning = &StageError{Stage: stage, Err: err}
		return result, nil
	}
	result.Stage = ports.StageNotified

	s.logger.Infow("task_create_ok", "task_id", task.ID, "related_id", task.RelatedID, "type", task.Type)
	result.Stage = ports.StageCompleted
	return result, nil
}

func (s *taskService) notifyDetached(parent context.Context, task *domain.Task) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), asyncNotifyBudget)
	defer cancel()
	if err := s.notifier.NotifyTaskCreated(ctx, task); err != nil {
		s.logger.Warnw("task_notify_async_failed", "task_id", task.ID, "error", err)
		return
	}
	s.logger.Infow("task_notify_async_ok", "task_id", task.ID)
}

// ==================== Dashboard ====================

// GetTodayTasks returns open tasks due between local midnight and the last
// instant of the current day, earliest first.
func (s *taskService) GetTodayTasks(ctx context.Context) ([]domain.Task, error) {
	from, to := dayBounds(s.now())
	tasks, err := s.repo.ListOpenDueBetween(ctx, from, to)
	if err != nil {
		s.logger.Errorw("task_list_today_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return tasks, nil
}

// CompleteTask marks the task completed and returns the stored row.
func (s *taskService) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := s.repo.MarkCompleted(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Errorw("task_complete_failed", "task_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Errorw("task_complete_reload_failed", "task_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Infow("task_complete_ok", "task_id", id)
	return task, nil
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}
