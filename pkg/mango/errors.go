package mango

import (
	"errors"
	"fmt"

	"github.com/mango-db/mango/internal/core"
)

// Issue is a single field-level validation failure.
type Issue = core.Issue

// Issues is a list of validation failures.
type Issues = core.Issues

// ValidationError reports that a schema rejected a write payload. It is
// never retried and always surfaced to the caller.
type ValidationError struct {
	// Op is the write kind that was validated: "insert", "update" or
	// "replace".
	Op string

	// Issues carries the field-level failures.
	Issues Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Op, e.Issues.Error())
}

func (e *ValidationError) Unwrap() error { return e.Issues }

// AsyncValidationError reports a schema whose validation requires
// asynchronous resolution, which the write paths do not support. It
// signals a configuration error (wrong schema kind), not a transient
// condition.
type AsyncValidationError struct {
	SchemaID string
}

func (e *AsyncValidationError) Error() string {
	return fmt.Sprintf("schema %s requires asynchronous validation, which is not supported", e.SchemaID)
}

// ConnectionError reports that the store is unreachable or not yet
// connected. No automatic reconnection is attempted.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError wraps a store failure that is not a validation failure,
// with operation and collection context.
type OperationError struct {
	Op         string
	Collection string
	Err        error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NotFoundError is raised by the ByID convenience helpers when no document
// matches.
type NotFoundError struct {
	Collection string
	Filter     Document
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no document in %s matches %v", e.Collection, e.Filter)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
