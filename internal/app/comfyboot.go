// Package app wires configuration, adapters, providers and the sequencer into
// a provisioning run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/comfyboot/internal/adapters/cloudflared"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/command"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/fetch"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/filesystem"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/geo"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/git"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/ledger"
	"github.com/felixgeelhaar/comfyboot/internal/adapters/modelscope"
	pyenv "github.com/felixgeelhaar/comfyboot/internal/adapters/python"
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/domain/execution"
	"github.com/felixgeelhaar/comfyboot/internal/domain/launcher"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/domain/retry"
	"github.com/felixgeelhaar/comfyboot/internal/domain/workspace"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/provider/comfyui"
	"github.com/felixgeelhaar/comfyboot/internal/provider/models"
	"github.com/felixgeelhaar/comfyboot/internal/provider/nodes"
	"github.com/felixgeelhaar/comfyboot/internal/provider/python"
	"github.com/felixgeelhaar/comfyboot/internal/provider/tunnel"
	"github.com/felixgeelhaar/comfyboot/internal/provider/workflows"
)

// VenvDir is the environment directory inside the state directory.
const VenvDir = "venv"

// RunOptions selects what a run does.
type RunOptions struct {
	// Phase restricts the run to one phase. A restricted run never launches.
	Phase compiler.Phase
	// NoLaunch stops after the last step.
	NoLaunch bool
}

// App is the application orchestrator.
type App struct {
	runner     ports.CommandRunner
	fs         ports.FileSystem
	locator    ports.Locator
	logger     ports.Logger
	out        io.Writer
	cwd        string
	lookPath   func(string) (string, error)
	retryDelay time.Duration
}

// Option configures an App.
type Option func(*App)

// WithRunner replaces the command runner.
func WithRunner(runner ports.CommandRunner) Option {
	return func(a *App) {
		a.runner = runner
	}
}

// WithFileSystem replaces the filesystem.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// WithLocator replaces the geolocation client.
func WithLocator(locator ports.Locator) Option {
	return func(a *App) {
		a.locator = locator
	}
}

// WithWorkingDir sets the directory relative paths resolve against.
func WithWorkingDir(dir string) Option {
	return func(a *App) {
		a.cwd = dir
	}
}

// WithLookPath replaces the PATH lookup used to detect cloudflared.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(a *App) {
		a.lookPath = fn
	}
}

// WithRetryDelay sets the pause between download attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(a *App) {
		a.retryDelay = d
	}
}

// New creates an App writing user-facing output to out.
func New(out io.Writer, logger ports.Logger, opts ...Option) *App {
	a := &App{
		runner:     command.NewRealRunner(),
		fs:         filesystem.NewRealFileSystem(),
		locator:    geo.NewClient(),
		logger:     logger,
		out:        out,
		retryDelay: retry.DefaultDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			a.cwd = wd
		}
	}
	return a
}

// session holds everything resolved once for a run.
type session struct {
	cfg      *config.Config
	logger   ports.Logger
	region   mirror.Region
	mirrors  mirror.Set
	ws       workspace.Workspace
	stateDir string
	venv     *pyenv.Venv
	ledger   *ledger.MarkerLedger
	tunnel   ports.TunnelProvider
	seq      *compiler.Sequence
}

// prepare resolves the region and workspace, builds the adapters and
// compiles the step sequence.
func (a *App) prepare(ctx context.Context, cfg *config.Config) (*session, error) {
	logger := a.logger.With(ports.F("run", uuid.NewString()))

	region := mirror.Resolve(ctx, cfg.Region(), a.locator, logger)
	mirrors := mirror.For(region)
	ws := workspace.Resolve(a.cwd, cfg.Workspace(), a.fs)
	stateDir := ports.ResolveUnder(a.cwd, cfg.StateDir())

	logger.Debug(ctx, "resolved run",
		ports.F("region", string(region)),
		ports.F("workspace", ws.Root()),
		ports.F("state_dir", stateDir),
	)

	venv := pyenv.NewVenv(a.runner, cfg.Python(), filepath.Join(stateDir, VenvDir))
	scm := git.NewClient(a.runner)
	fetcher := fetch.NewWget(a.runner, a.fs)

	var cfOpts []cloudflared.Option
	if a.lookPath != nil {
		cfOpts = append(cfOpts, cloudflared.WithLookPath(a.lookPath))
	}
	tunnelClient := cloudflared.NewClient(a.runner, cfOpts...)

	comp := compiler.NewCompiler()
	comp.RegisterProvider(python.NewProvider(venv, a.fs))
	comp.RegisterProvider(comfyui.NewProvider(scm, a.fs))
	comp.RegisterProvider(nodes.NewProvider(scm, venv, a.fs))
	comp.RegisterProvider(models.NewProvider(modelscope.NewDownloader(a.runner, filepath.Dir(venv.Interpreter())), a.fs))
	comp.RegisterProvider(workflows.NewProvider(fetcher, a.fs))
	comp.RegisterProvider(tunnel.NewProvider(a.fs, fetcher, tunnelClient, stateDir))

	seq, err := comp.Compile(compiler.NewCompileContext(cfg, ws, mirrors))
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		region:   region,
		mirrors:  mirrors,
		ws:       ws,
		stateDir: stateDir,
		venv:     venv,
		ledger:   ledger.NewMarkerLedger(stateDir),
		seq:      seq,
	}
	if cfg.Launch().Tunnel {
		s.tunnel = tunnelClient
	}
	return s, nil
}

func (s *session) plan(ctx context.Context, fs ports.FileSystem, phase compiler.Phase) (*execution.Plan, error) {
	opts := execution.PlanOptions{
		Phase:     phase,
		Installed: s.cfg.Options().SkipIfInstalled && s.ws.Installed(fs),
	}
	if opts.Installed {
		skipped := "setup"
		if phase == "" {
			skipped = "provisioning"
		}
		s.logger.Info(ctx, "ComfyUI is already installed, skipping "+skipped, ports.F("workspace", s.ws.Root()))
	}
	plan, err := execution.NewPlanner(s.ledger).Plan(ctx, s.seq, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}

	recorded, err := s.ledger.Done()
	if err != nil {
		s.logger.Warn(ctx, "could not list recorded steps", ports.F("dir", s.ledger.Dir()), ports.Err(err))
	}
	plan.SetRecorded(recorded)
	return plan, nil
}

// Plan resolves the run and returns the plan without applying it.
func (a *App) Plan(ctx context.Context, cfg *config.Config, phase compiler.Phase) (*execution.Plan, error) {
	s, err := a.prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s.plan(ctx, a.fs, phase)
}

// Run provisions the workspace and, unless the run is restricted to a phase
// or NoLaunch is set, launches the service and blocks until it exits.
func (a *App) Run(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	s, err := a.prepare(ctx, cfg)
	if err != nil {
		return err
	}

	plan, err := s.plan(ctx, a.fs, opts.Phase)
	if err != nil {
		return err
	}

	retrier := retry.NewRunner(cfg.Retries(),
		retry.WithDelay(a.retryDelay),
		retry.WithFileSystem(a.fs),
		retry.WithLogger(s.logger),
	)
	results, err := execution.NewExecutor(s.ledger, retrier, s.logger).Execute(ctx, plan)
	a.PrintResults(results)
	if err != nil {
		return err
	}

	if opts.Phase != "" || opts.NoLaunch {
		return nil
	}
	return a.launch(ctx, s)
}

func (a *App) launch(ctx context.Context, s *session) error {
	settings := s.cfg.Launch()
	l := launcher.New(a.runner, s.tunnel, s.logger, a.out, settings)

	service := ports.Invocation{
		Description: "Starting ComfyUI",
		Command:     s.interpreter(a.fs),
		Args:        append([]string{workspace.EntryPoint}, settings.Args...),
		Dir:         s.ws.Root(),
	}
	s.logger.Info(ctx, "Starting ComfyUI", ports.F("address", l.Address()), ports.F("python", service.Command))
	err := l.Run(ctx, service)

	fields := []ports.Field{ports.F("state", string(l.State()))}
	if url := l.URL(); url != "" {
		fields = append(fields, ports.F("url", url))
	}
	if err != nil {
		fields = append(fields, ports.Err(err))
	}
	s.logger.Info(ctx, "ComfyUI stopped", fields...)
	return err
}

// workspaceVenvs are environments an existing checkout may carry.
var workspaceVenvs = []string{"venv", ".venv"}

// interpreter picks the Python that runs the service: the managed
// environment when it exists, then an environment inside the workspace, then
// the configured base interpreter. A workspace installed before the first
// run has no managed environment.
func (s *session) interpreter(fs ports.FileSystem) string {
	if managed := s.venv.Interpreter(); fs.Exists(managed) {
		return managed
	}
	for _, dir := range workspaceVenvs {
		if python := s.ws.Path(filepath.Join(dir, "bin", "python")); fs.Exists(python) {
			return python
		}
	}
	return s.cfg.Python()
}
