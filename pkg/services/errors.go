// Package services provides the admin-facing operations on workflows,
// subplugin instances and processes.
package services

import (
	"errors"
	"fmt"

	"github.com/campuskit/coursecycle/pkg/persistence"
)

// Business logic errors. Validation errors map to 400 responses,
// conflicts to 409.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownSubplugin = errors.New("unknown subplugin type")
	ErrInvalidSettings  = errors.New("invalid subplugin settings")
	ErrNotManualTrigger = errors.New("trigger is not a manual trigger")
	ErrInstanceMismatch = errors.New("instance does not belong to workflow")
	ErrCourseNotFound   = errors.New("course not found")
	ErrWorkflowManual   = errors.New("manual workflows have no selection order")

	ErrWorkflowNotDraft   = errors.New("workflow is not a draft")
	ErrWorkflowNotActive  = errors.New("workflow is not active")
	ErrWorkflowActive     = errors.New("workflow is still active")
	ErrNoTriggers         = errors.New("workflow has no trigger instances")
	ErrManualMultiTrigger = errors.New("manual workflows allow exactly one trigger")
	ErrHasProcesses       = errors.New("workflow still has running processes")
	ErrProcessExists      = persistence.ErrProcessExists

	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrInstanceNotFound = persistence.ErrInstanceNotFound
	ErrProcessNotFound  = persistence.ErrProcessNotFound
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownSubplugin) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrNotManualTrigger) ||
		errors.Is(err, ErrInstanceMismatch) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrNoTriggers) ||
		errors.Is(err, ErrManualMultiTrigger) ||
		errors.Is(err, ErrWorkflowManual)
}

// IsConflictError reports whether an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowNotDraft) ||
		errors.Is(err, ErrWorkflowNotActive) ||
		errors.Is(err, ErrWorkflowActive) ||
		errors.Is(err, ErrHasProcesses) ||
		errors.Is(err, ErrProcessExists)
}

// IsNotFoundError reports whether an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrProcessNotFound)
}
