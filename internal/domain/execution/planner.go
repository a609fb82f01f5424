package execution

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// PlanOptions selects which steps a plan contains and how they start out.
type PlanOptions struct {
	// Phase restricts the plan to one phase. Empty means every phase.
	Phase compiler.Phase
	// Installed short-circuits the whole sequence on a full run, and the
	// setup steps of a phase run. A download-only run still fetches its
	// artifacts. The app sets it when the workspace entry point exists and
	// skipping is enabled.
	Installed bool
}

// Planner builds a Plan from a compiled sequence.
type Planner struct {
	ledger ports.Ledger
}

// NewPlanner creates a new Planner consulting ledger.
func NewPlanner(ledger ports.Ledger) *Planner {
	return &Planner{ledger: ledger}
}

// Plan evaluates each selected step in order. Short-circuited steps and
// steps with a marker are not checked. The result previews the run; the
// executor re-evaluates every entry when it reaches it, since earlier steps
// change what later checks observe.
func (p *Planner) Plan(ctx context.Context, seq *compiler.Sequence, opts PlanOptions) (*Plan, error) {
	plan := NewExecutionPlan()
	runCtx := compiler.NewRunContext(ctx).WithDryRun(true)

	for _, step := range seq.Steps() {
		if opts.Phase != "" && step.Phase() != opts.Phase {
			continue
		}

		entry, err := p.planStep(step, runCtx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to plan step %q: %w", step.ID().String(), err)
		}
		plan.Add(entry)
	}

	return plan, nil
}

func (p *Planner) planStep(step compiler.Step, ctx compiler.RunContext, opts PlanOptions) (PlanEntry, error) {
	if opts.Installed && (opts.Phase == "" || step.Phase() == compiler.PhaseSetup) {
		return NewPlanEntry(step, compiler.StatusSkipped, ReasonInstalled, compiler.Diff{}), nil
	}
	if p.ledger.IsDone(step.ID().String()) {
		return NewPlanEntry(step, compiler.StatusSkipped, ReasonRecorded, compiler.Diff{}), nil
	}

	status, err := step.Check(ctx)
	if err != nil {
		return PlanEntry{}, fmt.Errorf("check failed: %w", err)
	}

	switch status {
	case compiler.StatusSatisfied:
		return NewPlanEntry(step, status, ReasonPresent, compiler.Diff{}), nil
	case compiler.StatusSkipped:
		return NewPlanEntry(step, status, ReasonNotApplicable, compiler.Diff{}), nil
	}

	diff, err := step.Plan(ctx)
	if err != nil {
		return PlanEntry{}, fmt.Errorf("plan failed: %w", err)
	}
	return NewPlanEntry(step, compiler.StatusNeedsApply, ReasonPending, diff), nil
}
