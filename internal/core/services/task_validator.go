package services

import (
	"strings"
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
)

// ValidatedTask is a request that passed ValidateCreateTask.
type ValidatedTask struct {
	RelatedID string
	Type      domain.TaskType
	DueAt     time.Time
}

var invalidTaskTypeMessage = func() string {
	names := make([]string, len(domain.TaskTypes))
	for i, t := range domain.TaskTypes {
		names[i] = string(t)
	}
	return "Invalid task_type. Must be one of: " + strings.Join(names, ", ")
}()

// Layouts without a zone are read in server local time, except the
// date-only form which is UTC midnight.
var dueAtLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04Z07:00", false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02", false},
}

func parseDueAt(s string) (time.Time, bool) {
	for _, l := range dueAtLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidateCreateTask checks input against the creation rules and stops at the
// first one violated. It has no side effects.
func ValidateCreateTask(input ports.CreateTaskInput, now time.Time) (*ValidatedTask, error) {
	// A whitespace-only related_id is present; it fails the application lookup.
	if input.RelatedID == "" {
		return nil, &ValidationError{Rule: ErrMissingField, Field: "related_id", Message: "related_id is required"}
	}
	relatedID := strings.TrimSpace(input.RelatedID)

	taskType := domain.TaskType(input.TaskType)
	if !taskType.Valid() {
		return nil, &ValidationError{Rule: ErrInvalidEnum, Field: "task_type", Message: invalidTaskTypeMessage}
	}

	if input.DueAt == "" {
		return nil, &ValidationError{Rule: ErrMissingField, Field: "due_at", Message: "due_at is required"}
	}

	dueAt, ok := parseDueAt(strings.TrimSpace(input.DueAt))
	if !ok {
		return nil, &ValidationError{Rule: ErrMalformedDate, Field: "due_at", Message: "due_at must be a valid ISO date string"}
	}

	if !dueAt.After(now) {
		return nil, &ValidationError{Rule: ErrPastDueDate, Field: "due_at", Message: "due_at must be a future date"}
	}

	return &ValidatedTask{RelatedID: relatedID, Type: taskType, DueAt: dueAt}, nil
}
