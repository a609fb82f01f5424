package compiler

// Step is one named unit of provisioning work. Steps are built once by
// providers at compile time and evaluated in plan order.
type Step interface {
	// ID returns the unique identifier for this step. It also names the
	// step's completion marker.
	ID() StepID

	// Description is the human label used in progress and error output.
	Description() string

	// Phase returns the phase the step belongs to.
	Phase() Phase

	// Check inspects the host. StatusSatisfied records the step as done
	// without applying it; StatusSkipped leaves it unrecorded.
	Check(ctx RunContext) (StepStatus, error)

	// Plan returns the diff describing what Apply would do.
	Plan(ctx RunContext) (Diff, error)

	// Apply performs the step's side effects.
	Apply(ctx RunContext) error

	// Explain returns human-readable context for this step.
	Explain(ctx ExplainContext) Explanation
}

// ArtifactStep is a step whose whole effect is a single file. The executor
// runs it under the retry runner: the file's presence before any attempt
// satisfies the step, and failures are retried up to Retries attempts.
type ArtifactStep interface {
	Step

	// Artifact returns the absolute path of the produced file.
	Artifact() string

	// Retries returns the attempt bound.
	Retries() int
}

// AsArtifact returns step as an ArtifactStep, or nil if it is not one.
func AsArtifact(step Step) ArtifactStep {
	if a, ok := step.(ArtifactStep); ok {
		return a
	}
	return nil
}
