package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
)

var planCmd = &cobra.Command{
	Use:   "plan [down]",
	Short: "Show what comfyboot would do",
	Long: `Plan resolves the mirrors and workspace, compiles the provisioning steps
and checks each one against the host without making changes.

Steps already recorded by a marker, steps whose result is already present,
and steps skipped because ComfyUI is installed are listed with the
reason. --explain adds what each step does; with -v it also names the paths,
commands and URLs involved.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{downArg},
	RunE:      runPlan,
}

var explain bool

func init() {
	planCmd.Flags().BoolVar(&explain, "explain", false, "describe each step")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var phase compiler.Phase
	if len(args) == 1 && args[0] == downArg {
		phase = compiler.PhaseDownload
	}

	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	p := newProvisioner(cmd.OutOrStdout(), logger)
	plan, err := p.Plan(cmd.Context(), cfg, phase)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	var ec *compiler.ExplainContext
	if explain {
		c := compiler.NewExplainContext().WithVerbose(verbose)
		ec = &c
	}
	p.PrintPlan(plan, ec)
	return nil
}
