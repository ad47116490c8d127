// Package dashboard keeps a caller-side view of today's open tasks.
package dashboard

import (
	"context"
	"sync"

	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/realtime"
	"github.com/followup/backend/internal/transport/http/dto"
)

// Board holds the list shown to an operator. Completing a task removes it
// locally before the server confirms; on failure the whole list is fetched
// again instead of restoring the single row.
type Board struct {
	api    TaskAPI
	logger *logger.Logger

	mu    sync.RWMutex
	tasks []dto.TaskResponse
}

func NewBoard(api TaskAPI, log *logger.Logger) *Board {
	if log == nil {
		log = logger.NewNop()
	}
	return &Board{api: api, logger: log}
}

func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.api.TodayTasks(ctx)
	if err != nil {
		b.logger.Warnw("board_refresh_failed", "error", err)
		return err
	}

	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()

	b.logger.Debugw("board_refresh_ok", "count", len(tasks))
	return nil
}

// Tasks returns a copy of the current list.
func (b *Board) Tasks() []dto.TaskResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]dto.TaskResponse(nil), b.tasks...)
}

func (b *Board) MarkComplete(ctx context.Context, id string) error {
	b.mu.Lock()
	kept := b.tasks[:0:0]
	for _, t := range b.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	b.tasks = kept
	b.mu.Unlock()

	if err := b.api.CompleteTask(ctx, id); err != nil {
		b.logger.Warnw("board_complete_failed", "task_id", id, "error", err)
		if refreshErr := b.Refresh(ctx); refreshErr != nil {
			b.logger.Errorw("board_resync_failed", "task_id", id, "error", refreshErr)
		}
		return err
	}

	b.logger.Infow("board_complete_ok", "task_id", id)
	return nil
}

// HandleFrame refetches the list when a task.created broadcast arrives.
func (b *Board) HandleFrame(ctx context.Context, f realtime.Frame) error {
	if f.Type != realtime.FrameBroadcast || f.Event != domain.EventTaskCreated {
		return nil
	}
	b.logger.Infow("board_task_created", "task_id", f.Payload["task_id"])
	return b.Refresh(ctx)
}
