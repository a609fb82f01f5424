package execution

import (
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
)

// StepError reports the step that stopped a run.
type StepError struct {
	StepID      compiler.StepID
	Description string
	Err         error
}

// Error returns the one-line failure message shown to users.
func (e *StepError) Error() string {
	return fmt.Sprintf("Error during %s: %v", e.Description, e.Err)
}

// Unwrap returns the cause.
func (e *StepError) Unwrap() error {
	return e.Err
}

func newStepError(step compiler.Step, err error) *StepError {
	return &StepError{StepID: step.ID(), Description: step.Description(), Err: err}
}
