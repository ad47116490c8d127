package domain

import "time"

// Broadcast event names published on the tasks channel.
const (
	EventTaskCreated = "task.created"
)

// TaskCreatedPayload is the body of a task.created broadcast.
type TaskCreatedPayload struct {
	TaskID    string `json:"task_id" cbor:"task_id"`
	RelatedID string `json:"related_id" cbor:"related_id"`
	TaskType  string `json:"task_type" cbor:"task_type"`
	DueAt     string `json:"due_at" cbor:"due_at"`
}

func NewTaskCreatedPayload(task *Task) TaskCreatedPayload {
	return TaskCreatedPayload{
		TaskID:    task.ID,
		RelatedID: task.RelatedID,
		TaskType:  string(task.Type),
		DueAt:     task.DueAt.UTC().Format(time.RFC3339Nano),
	}
}

func (p TaskCreatedPayload) Map() map[string]any {
	return map[string]any{
		"task_id":    p.TaskID,
		"related_id": p.RelatedID,
		"task_type":  p.TaskType,
		"due_at":     p.DueAt,
	}
}
