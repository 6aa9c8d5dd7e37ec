package job

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Store implementations when a record is absent.
var ErrNotFound = errors.New("job: record not found")

// FieldError names one violated input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every structural problem found in an input, not
// just the first one.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// orNil returns nil when no field was recorded so callers can write
// `return v.orNil()`.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PermissionError means the actor's role may not perform the operation.
type PermissionError struct {
	Op   string
	Role Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: role %q not permitted", e.Op, e.Role)
}

// NotFoundError means the referenced job does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

// ConflictError means the job exists but its current state does not satisfy
// the operation's precondition. Re-read the job before retrying.
type ConflictError struct {
	ID     string
	Op     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s job %s: %s", e.Op, e.ID, e.Reason)
}

// StoreError wraps a persistence failure. Its message is deliberately
// opaque; the cause is kept for logging via Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: storage failure", e.Op)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Kind classifies an error into one of the taxonomy names used by
// transports and metrics.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		validationErr *ValidationError
		permissionErr *PermissionError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
		storeErr      *StoreError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &permissionErr):
		return "permission"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.As(err, &storeErr):
		return "store"
	default:
		return "internal"
	}
}
