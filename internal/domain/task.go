package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskType string

const (
	TaskTypeCall   TaskType = "call"
	TaskTypeEmail  TaskType = "email"
	TaskTypeReview TaskType = "review"
)

// TaskTypes lists the accepted task types in display order.
var TaskTypes = []TaskType{TaskTypeCall, TaskTypeEmail, TaskTypeReview}

func (t TaskType) Valid() bool {
	for _, v := range TaskTypes {
		if t == v {
			return true
		}
	}
	return false
}

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is a follow-up attached to an application. TenantID is always copied
// from the application row, never from client input.
type Task struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RelatedID string     `gorm:"size:64;not null;index" json:"related_id"`
	Type      TaskType   `gorm:"size:20;not null" json:"type"`
	DueAt     time.Time  `gorm:"not null;index" json:"due_at"`
	TenantID  string     `gorm:"size:64;not null;index" json:"tenant_id"`
	Status    TaskStatus `gorm:"size:20;not null;default:'open';index" json:"status"`
}

// BeforeCreate assigns the store-side identifier.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
