package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/comfyboot/internal/adapters/logging"
	"github.com/felixgeelhaar/comfyboot/internal/app"
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/domain/execution"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// downArg restricts a run to model downloads.
const downArg = "down"

var (
	// Global flags
	cfgFile    string
	verbose    bool
	jsonLogs   bool
	regionFlag string
	logLevel   string
	noLaunch   bool
)

var rootCmd = &cobra.Command{
	Use:   "comfyboot [down]",
	Short: "Provision and launch ComfyUI",
	Long: `comfyboot provisions a ComfyUI installation and launches it.

Every step runs at most once: completed steps leave a <step>.done marker in
the state directory and are skipped on later runs. Delete a marker to make a
step run again.

With the "down" argument only the model downloads run and nothing is
launched.`,
	Args:          cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs:     []string{downArg},
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
	RunE:          runRoot,
}

// provisioner is the slice of app.App the commands use.
type provisioner interface {
	Run(ctx context.Context, cfg *config.Config, opts app.RunOptions) error
	Plan(ctx context.Context, cfg *config.Config, phase compiler.Phase) (*execution.Plan, error)
	PrintPlan(plan *execution.Plan, ec *compiler.ExplainContext)
}

var newProvisioner = func(out io.Writer, logger ports.Logger) provisioner {
	return app.New(out, logger)
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: comfyboot.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON lines")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error); -v implies debug")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "mirror region (auto, default, cn)")
	rootCmd.Flags().BoolVar(&noLaunch, "no-launch", false, "provision without launching ComfyUI")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("region", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"auto\tPick mirrors from a geolocation lookup",
			"default\tUpstream hosts",
			"cn\tMirrors reachable from mainland China",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(versionCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := app.RunOptions{NoLaunch: noLaunch}
	if len(args) == 1 && args[0] == downArg {
		opts.Phase = compiler.PhaseDownload
	}

	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	err = newProvisioner(cmd.OutOrStdout(), logger).Run(ctx, cfg, opts)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// loadConfig resolves the document: --config, then $COMFYBOOT_CONFIG, then
// discovery. An explicit path must exist; with no document the defaults
// apply. --region overrides the document's region.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	loader := config.NewLoader()
	finder := config.NewFinder(cwd)

	var cfg *config.Config
	switch {
	case cfgFile != "":
		cfg, err = loader.Load(cfgFile)
	case finder.Explicit() != "":
		cfg, err = loader.Load(finder.Explicit())
	default:
		if found := finder.Find(); found != "" {
			cfg, err = loader.Load(found)
		} else {
			cfg = config.Default()
		}
	}
	if err != nil {
		return nil, err
	}

	if regionFlag != "" {
		region, err := mirror.ParseRegion(regionFlag)
		if err != nil {
			return nil, config.NewValidationFailedError("--region", err.Error()).WithSuggestion("Use auto, default or cn.")
		}
		cfg = cfg.WithRegion(region)
	}
	return cfg, nil
}

func newLogger(w io.Writer) (ports.Logger, error) {
	level, err := ports.ParseLevel(logLevel)
	if err != nil {
		return nil, config.NewValidationFailedError("--log-level", err.Error()).WithSuggestion("Use debug, info, warn or error.")
	}
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(jsonLogs),
		logging.WithTimestamp(jsonLogs || verbose),
		logging.WithColor(!jsonLogs && isTerminal(w)),
	), nil
}

// isTerminal reports whether w is an interactive terminal, so piped logs
// carry no escape sequences.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
// Step failures are already phrased as "Error during <step>: <cause>".
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		if list.Len() > 1 {
			return "Error: invalid configuration\n" + list.Format()
		}
		err = list.Errors()[0]
	}

	if userErr := config.GetUserError(err); userErr != nil {
		msg := "Error: " + userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var stepErr *execution.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Error()
	}
	return "Error: " + err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, formatError(err))
}
