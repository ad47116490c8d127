package services

import (
	"errors"
	"fmt"

	"github.com/followup/backend/internal/core/ports"
)

// Validation errors
var (
	ErrMissingField  = errors.New("task: missing field")
	ErrInvalidEnum   = errors.New("task: invalid enum value")
	ErrMalformedDate = errors.New("task: malformed date")
	ErrPastDueDate   = errors.New("task: due date not in the future")
)

// Pipeline errors
var (
	ErrApplicationNotFound = errors.New("task: application not found")
	ErrPersistence         = errors.New("task: persistence failed")
	ErrTaskNotFound        = errors.New("task: not found")
)

// Notification errors
var (
	ErrNotifyTimeout = errors.New("notify: subscription not ready before timeout")
	ErrNotifyFailure = errors.New("notify: broadcast failed")
)

// ValidationError reports the first rule a request violated. Message is safe
// to return to the caller verbatim.
type ValidationError struct {
	Rule    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Rule
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage ports.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
