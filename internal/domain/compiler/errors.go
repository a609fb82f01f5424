package compiler

import (
	"fmt"
	"strings"
)

// Error codes for compiler operations.
const (
	ErrCodeProviderFailed = "PROVIDER_FAILED"
	ErrCodeStepDuplicate  = "STEP_DUPLICATE"
	ErrCodeStepNotFound   = "STEP_NOT_FOUND"
)

// CompileError reports a problem building the plan.
type CompileError struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	Provider   string // Provider that caused the error
	StepID     string // Step ID if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *CompileError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider %q", e.Provider))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}

	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error for error chain support.
func (e *CompileError) Unwrap() error {
	return e.Underlying
}

// NewProviderFailedError creates an error for provider compilation failure.
func NewProviderFailedError(provider string, err error) *CompileError {
	return &CompileError{
		Code:       ErrCodeProviderFailed,
		Message:    "provider failed to compile steps",
		Provider:   provider,
		Suggestion: fmt.Sprintf("Check the %s section of your configuration.", provider),
		Underlying: err,
	}
}

// NewStepDuplicateError creates an error for duplicate step ID.
func NewStepDuplicateError(provider, stepID string) *CompileError {
	return &CompileError{
		Code:       ErrCodeStepDuplicate,
		Message:    "step with this ID already exists in the plan",
		Provider:   provider,
		StepID:     stepID,
		Suggestion: "Model and workflow ids must be unique.",
	}
}

// NewStepNotFoundError creates an error for an unknown step ID.
func NewStepNotFoundError(stepID string) *CompileError {
	return &CompileError{
		Code:    ErrCodeStepNotFound,
		Message: "no such step",
		StepID:  stepID,
	}
}
