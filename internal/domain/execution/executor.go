package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/retry"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Executor runs plan entries strictly in order and records completions.
type Executor struct {
	ledger ports.Ledger
	retry  *retry.Runner
	logger ports.Logger
}

// NewExecutor creates a new Executor. Artifact steps run under retrier.
func NewExecutor(ledger ports.Ledger, retrier *retry.Runner, logger ports.Logger) *Executor {
	return &Executor{
		ledger: ledger,
		retry:  retrier,
		logger: logger,
	}
}

// Execute walks the plan. For each entry it consults the ledger, then the
// step's own check, and applies the step only when both say it is needed.
// A successful apply or a satisfied check writes the step's marker. The
// first failure stops the run: results so far are returned with a
// *StepError.
func (e *Executor) Execute(ctx context.Context, plan *Plan) ([]StepResult, error) {
	results := make([]StepResult, 0, plan.Len())
	runCtx := compiler.NewRunContext(ctx)

	for _, entry := range plan.Entries() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := e.executeEntry(entry, runCtx)
		results = append(results, result)

		if result.Status() == compiler.StatusFailed {
			return results, newStepError(entry.Step(), result.Error())
		}
	}

	return results, nil
}

func (e *Executor) executeEntry(entry PlanEntry, ctx compiler.RunContext) StepResult {
	step := entry.Step()
	id := step.ID().String()

	if entry.ShortCircuited() {
		e.logger.Debug(ctx.Context(), "skipping step, application installed", ports.F("step", id))
		return NewStepResult(step, compiler.StatusSkipped, ReasonInstalled, nil)
	}

	if e.ledger.IsDone(id) {
		e.logger.Debug(ctx.Context(), "skipping recorded step", ports.F("step", id))
		return NewStepResult(step, compiler.StatusSkipped, ReasonRecorded, nil)
	}

	status, err := step.Check(ctx)
	if err != nil {
		return NewStepResult(step, compiler.StatusFailed, ReasonPending, fmt.Errorf("checking state: %w", err))
	}
	switch status {
	case compiler.StatusSkipped:
		e.logger.Debug(ctx.Context(), "step not applicable", ports.F("step", id))
		return NewStepResult(step, compiler.StatusSkipped, ReasonNotApplicable, nil)
	case compiler.StatusSatisfied:
		if err := e.ledger.MarkDone(id); err != nil {
			return NewStepResult(step, compiler.StatusFailed, ReasonPresent, err)
		}
		return NewStepResult(step, compiler.StatusSatisfied, ReasonPresent, nil)
	}

	e.logger.Info(ctx.Context(), step.Description()+"...", ports.F("step", id))
	start := time.Now()
	err = e.apply(ctx, step)
	duration := time.Since(start)
	if err != nil {
		return NewStepResult(step, compiler.StatusFailed, ReasonPending, err).WithDuration(duration)
	}

	if err := e.ledger.MarkDone(id); err != nil {
		return NewStepResult(step, compiler.StatusFailed, ReasonApplied, err).WithDuration(duration)
	}
	e.logger.Info(ctx.Context(), step.Description()+"...Done", ports.F("step", id), ports.F("duration", duration.Round(time.Millisecond).String()))

	return NewStepResult(step, compiler.StatusSatisfied, ReasonApplied, nil).WithDuration(duration)
}

func (e *Executor) apply(ctx compiler.RunContext, step compiler.Step) error {
	artifact := compiler.AsArtifact(step)
	if artifact == nil || e.retry == nil {
		return step.Apply(ctx)
	}
	return e.retry.DoWithAttempts(ctx.Context(), artifact.Retries(), step.Description(), artifact.Artifact(),
		func(context.Context) error {
			return step.Apply(ctx)
		})
}
