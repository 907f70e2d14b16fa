package persistence

import "errors"

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInstanceNotFound indicates a trigger or step instance was not found.
	ErrInstanceNotFound = errors.New("subplugin instance not found")

	// ErrStepNotFound indicates no step instance exists at the requested sort index.
	ErrStepNotFound = errors.New("step instance not found")

	// ErrProcessNotFound indicates a process was not found by id or course.
	ErrProcessNotFound = errors.New("process not found")

	// ErrProcessExists indicates the course already has a live process.
	ErrProcessExists = errors.New("process already exists for course")

	// ErrProcessErrorNotFound indicates a parked process error was not found.
	ErrProcessErrorNotFound = errors.New("process error not found")
)

// IsWorkflowNotFound reports whether err wraps ErrWorkflowNotFound.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsProcessNotFound reports whether err wraps ErrProcessNotFound.
func IsProcessNotFound(err error) bool {
	return errors.Is(err, ErrProcessNotFound)
}

// IsProcessExists reports whether err wraps ErrProcessExists.
func IsProcessExists(err error) bool {
	return errors.Is(err, ErrProcessExists)
}

// IsInstanceNotFound reports whether err wraps ErrInstanceNotFound.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsStepNotFound reports whether err wraps ErrStepNotFound.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}
