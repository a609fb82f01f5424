package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/execution"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	applyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	phaseTitle   = cases.Title(language.English)
	statusSymbol = map[compiler.StepStatus]string{
		compiler.StatusNeedsApply: applyStyle.Render("+"),
		compiler.StatusSatisfied:  okStyle.Render("✓"),
		compiler.StatusSkipped:    skipStyle.Render("-"),
		compiler.StatusFailed:     failStyle.Render("✗"),
	}
)

// PrintPlan outputs a human-readable plan grouped by phase. A non-nil ec
// adds each step's explanation below its entry.
func (a *App) PrintPlan(plan *execution.Plan, ec *compiler.ExplainContext) {
	summary := plan.Summary()

	a.printf("\n%s\n\n", headerStyle.Render("comfyboot plan"))

	if plan.IsEmpty() {
		a.printf("No steps selected.\n")
		return
	}

	var phase compiler.Phase
	for _, entry := range plan.Entries() {
		step := entry.Step()
		if step.Phase() != phase {
			phase = step.Phase()
			a.printf("%s\n", headerStyle.Render(phaseTitle.String(phase.String())))
		}

		line := fmt.Sprintf("  %s %s", statusSymbol[entry.Status()], step.ID().String())
		if reason := entry.Reason(); reason != execution.ReasonPending {
			line += skipStyle.Render(" (" + reason.String() + ")")
		}
		a.printf("%s\n", line)

		if diff := entry.Diff(); !diff.IsEmpty() {
			a.printf("      %s\n", diff.Summary())
		}
		if ec != nil {
			for _, l := range step.Explain(*ec).Lines(*ec) {
				a.printf("      %s\n", skipStyle.Render(l))
			}
		}
	}

	a.printf("\nSteps: %d total, %d to apply, %d satisfied, %d skipped\n",
		summary.Total, summary.NeedsApply, summary.Satisfied, summary.Skipped)
	if recorded := plan.Recorded(); len(recorded) > 0 {
		a.printf("Recorded: %s\n", strings.Join(recorded, ", "))
	}
	if !plan.HasChanges() {
		a.printf("Nothing to do.\n")
	}
}

// PrintResults outputs a one-line summary of execution results, followed by
// the failure if there was one.
func (a *App) PrintResults(results []execution.StepResult) {
	var applied, present, skipped int
	for i := range results {
		switch {
		case results[i].Status() == compiler.StatusFailed:
			a.printf("%s %s: %v\n", statusSymbol[compiler.StatusFailed], results[i].StepID().String(), results[i].Error())
		case results[i].Applied():
			applied++
		case results[i].Skipped():
			skipped++
		default:
			present++
		}
	}
	a.printf("%s %d applied, %d already present, %d skipped\n",
		headerStyle.Render("Provisioning:"), applied, present, skipped)
}

func (a *App) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
