package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies pipeline failures for audit trails.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryCredential     ErrorCategory = "credential"
	ErrorCategoryClassifier     ErrorCategory = "classifier"
	ErrorCategoryTransformation ErrorCategory = "transformation"
	ErrorCategoryValidation     ErrorCategory = "validation"
)

// Sentinel errors for the failure modes a caller is expected to branch on.
var (
	// ErrSourceUnavailable means a data source could not be reached; the
	// scan does not proceed.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrBatchFetchFailed means at least one message fetch in a batch
	// failed; the whole batch is discarded.
	ErrBatchFetchFailed = errors.New("message batch fetch failed")
)

// PipelineError wraps an error with its category and the scope it occurred
// at (a collection, message id, or "scan").
type PipelineError struct {
	Category ErrorCategory
	Scope    string
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Scope, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newPipelineError(category ErrorCategory, scope string, err error) *PipelineError {
	return &PipelineError{Category: category, Scope: scope, Err: err}
}
