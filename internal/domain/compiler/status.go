package compiler

import (
	"fmt"
	"strings"
)

// StepStatus is the outcome of checking a step against the host.
type StepStatus string

const (
	// StatusSatisfied means the step's effect is already present.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply means the step must run.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusSkipped means the step does not apply to this run, for example
	// because an optional script is absent.
	StatusSkipped StepStatus = "skipped"
	// StatusFailed means the step failed during check or apply.
	StatusFailed StepStatus = "failed"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction reports whether the step has to be applied.
func (s StepStatus) NeedsAction() bool {
	return s == StatusNeedsApply || s == StatusFailed
}

// Phase groups steps for partial runs.
type Phase string

const (
	// PhaseSetup covers the environment, repositories, and installers.
	PhaseSetup Phase = "setup"
	// PhaseDownload covers model weights and other large artifacts.
	PhaseDownload Phase = "download"
)

// ParsePhase parses a phase name.
func ParsePhase(raw string) (Phase, error) {
	switch p := Phase(strings.ToLower(strings.TrimSpace(raw))); p {
	case PhaseSetup, PhaseDownload:
		return p, nil
	default:
		return "", fmt.Errorf("unknown phase %q", raw)
	}
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}
