package execution

import (
	"slices"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
)

// Reason explains a step's status in a plan or result.
type Reason string

const (
	// ReasonPending means the step has not run yet.
	ReasonPending Reason = ""
	// ReasonApplied means the step ran in this invocation.
	ReasonApplied Reason = "applied"
	// ReasonRecorded means a completion marker exists.
	ReasonRecorded Reason = "recorded"
	// ReasonPresent means the step's own check found its effect already
	// present. A marker is written.
	ReasonPresent Reason = "present"
	// ReasonNotApplicable means the step's check reported it does not apply.
	ReasonNotApplicable Reason = "not applicable"
	// ReasonInstalled means the application entry point exists and the
	// step was short-circuited.
	ReasonInstalled Reason = "installed"
)

// String returns the reason text.
func (r Reason) String() string {
	return string(r)
}

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   compiler.Step
	status compiler.StepStatus
	reason Reason
	diff   compiler.Diff
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step compiler.Step, status compiler.StepStatus, reason Reason, diff compiler.Diff) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
		reason: reason,
		diff:   diff,
	}
}

// Step returns the step to be executed.
func (e PlanEntry) Step() compiler.Step {
	return e.step
}

// Status returns the status observed when planning.
func (e PlanEntry) Status() compiler.StepStatus {
	return e.status
}

// Reason returns why the step has its status.
func (e PlanEntry) Reason() Reason {
	return e.reason
}

// Diff returns the planned change.
func (e PlanEntry) Diff() compiler.Diff {
	return e.diff
}

// ShortCircuited reports whether the entry was skipped because the
// application is already installed. Such entries are never evaluated.
func (e PlanEntry) ShortCircuited() bool {
	return e.reason == ReasonInstalled
}

// PlanSummary provides aggregate statistics about the execution plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Skipped    int
}

// Plan is the ordered list of entries for one run.
type Plan struct {
	entries  []PlanEntry
	recorded []string
}

// NewExecutionPlan creates an empty Plan.
func NewExecutionPlan() *Plan {
	return &Plan{}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns a copy of all plan entries.
func (p *Plan) Entries() []PlanEntry {
	out := make([]PlanEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// SetRecorded attaches the step names the ledger held when the plan was
// built. Names that match no entry are kept.
func (p *Plan) SetRecorded(names []string) {
	p.recorded = slices.Clone(names)
}

// Recorded returns the step names attached by SetRecorded.
func (p *Plan) Recorded() []string {
	return slices.Clone(p.recorded)
}

// NeedsApply returns entries that require execution.
func (p *Plan) NeedsApply() []PlanEntry {
	var result []PlanEntry
	for _, e := range p.entries {
		if e.status == compiler.StatusNeedsApply {
			result = append(result, e)
		}
	}
	return result
}

// HasChanges returns true if any steps need to be applied.
func (p *Plan) HasChanges() bool {
	return len(p.NeedsApply()) > 0
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case compiler.StatusNeedsApply, compiler.StatusFailed:
			summary.NeedsApply++
		case compiler.StatusSatisfied:
			summary.Satisfied++
		case compiler.StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}
