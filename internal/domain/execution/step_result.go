// Package execution plans and runs the step sequence.
package execution

import (
	"time"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID      compiler.StepID
	description string
	status      compiler.StepStatus
	reason      Reason
	err         error
	duration    time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(step compiler.Step, status compiler.StepStatus, reason Reason, err error) StepResult {
	return StepResult{
		stepID:      step.ID(),
		description: step.Description(),
		status:      status,
		reason:      reason,
		err:         err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() compiler.StepID {
	return r.stepID
}

// Description returns the step's human label.
func (r StepResult) Description() string {
	return r.description
}

// Status returns the final status of the step.
func (r StepResult) Status() compiler.StepStatus {
	return r.status
}

// Reason returns why the step ended with its status.
func (r StepResult) Reason() Reason {
	return r.reason
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Applied returns true if the step ran in this invocation.
func (r StepResult) Applied() bool {
	return r.reason == ReasonApplied
}

// Skipped returns true if the step was skipped.
func (r StepResult) Skipped() bool {
	return r.status == compiler.StatusSkipped
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}
