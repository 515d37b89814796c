package bqpipe

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced warehouse object is absent.
// Existence checks recover from it internally; every other operation
// returns it to the caller.
type NotFoundError struct {
	// Object names the missing object, such as "dataset.table".
	Object string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found: %v", e.Object, e.Err)
	}
	return fmt.Sprintf("%s not found", e.Object)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// InvalidRequestError reports a request the warehouse or this package
// rejected as malformed.
type InvalidRequestError struct {
	Reason string
	Err    error
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return e.Err }

// SchemaValidationError reports a custom schema that failed validation
// before any warehouse call was made.
type SchemaValidationError struct {
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid schema: %s", e.Reason)
}

// DestinationMissingError reports a write to a table that does not exist
// while table creation is disabled.
type DestinationMissingError struct {
	Dataset string
	Table   string
}

func (e *DestinationMissingError) Error() string {
	return fmt.Sprintf(
		"table %s.%s does not exist; set CreateIfMissing to create it", e.Dataset, e.Table)
}

// LoadError reports a load operation the warehouse accepted but failed
// to complete.
type LoadError struct {
	Dataset string
	Table   string

	// JobID identifies the failed job when the backend assigns one.
	JobID string
	Err   error
}

func (e *LoadError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("failed to load %s.%s: %v", e.Dataset, e.Table, e.Err)
	}
	return fmt.Sprintf("failed to load %s.%s (job %s): %v", e.Dataset, e.Table, e.JobID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsNotFound reports whether any error in the chain is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsInvalidRequest reports whether any error in the chain is an
// InvalidRequestError.
func IsInvalidRequest(err error) bool {
	var e *InvalidRequestError
	return errors.As(err, &e)
}
