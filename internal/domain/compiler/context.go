package compiler

import "context"

// RunContext carries the request context into Check, Plan and Apply. During
// a plan-only pass Apply is never called and Check must not touch the host.
type RunContext struct {
	ctx      context.Context
	planOnly bool
}

// NewRunContext wraps ctx for an applying pass.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx}
}

// Context returns the request context.
func (r RunContext) Context() context.Context { return r.ctx }

// DryRun reports a plan-only pass.
func (r RunContext) DryRun() bool { return r.planOnly }

// WithDryRun returns a copy marked as plan-only or applying.
func (r RunContext) WithDryRun(planOnly bool) RunContext {
	r.planOnly = planOnly
	return r
}

// ExplainContext selects how much of an Explanation `comfyboot plan
// --explain` prints. Verbose adds the detail and reference lines.
type ExplainContext struct {
	verbose bool
}

// NewExplainContext returns the summary-only context.
func NewExplainContext() ExplainContext { return ExplainContext{} }

// Verbose reports whether detail lines are wanted.
func (e ExplainContext) Verbose() bool { return e.verbose }

// WithVerbose returns a copy with verbosity set.
func (e ExplainContext) WithVerbose(verbose bool) ExplainContext {
	e.verbose = verbose
	return e
}
