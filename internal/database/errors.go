package database

import (
	"fmt"
	"time"
)

// ValidationError rejects a query before execution. No side effects have
// occurred when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query validation failed: %s", e.Reason)
}

// TimeoutError means the executor abandoned the wait. The worker is not
// forcibly terminated and may still be running against the data source.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query execution timed out after %s", e.Timeout)
}

// ExecutionError surfaces a data-source failure verbatim. Never retried.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
