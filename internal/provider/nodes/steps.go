package nodes

import (
	"path/filepath"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// DependencyStep runs the custom node dependency installer when it exists.
type DependencyStep struct {
	id   compiler.StepID
	env  ports.PythonEnvironment
	fs   ports.FileSystem
	root string
}

// NewDependencyStep creates a new DependencyStep for the workspace root.
func NewDependencyStep(env ports.PythonEnvironment, fs ports.FileSystem, root string) *DependencyStep {
	return &DependencyStep{
		id:   compiler.MustNewStepID("custom-node-deps"),
		env:  env,
		fs:   fs,
		root: root,
	}
}

// ID returns the step identifier.
func (s *DependencyStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *DependencyStep) Description() string {
	return "Installing custom nodes dependencies"
}

// Phase returns the setup phase.
func (s *DependencyStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Check reports skipped while the installer script is absent.
func (s *DependencyStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if !s.fs.Exists(s.scriptPath()) {
		return compiler.StatusSkipped, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DependencyStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeRun, "script", DependencyScript, s.root), nil
}

// Apply runs the installer from the workspace root.
func (s *DependencyStep) Apply(ctx compiler.RunContext) error {
	return s.env.RunScript(ctx.Context(), s.Description(), DependencyScript, s.root)
}

// Explain provides a human-readable explanation.
func (s *DependencyStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Install custom node requirements",
		"Runs ComfyUI-Manager's dependency script with the environment's interpreter. Skipped when ComfyUI-Manager is not installed.",
		nil,
	)
}

func (s *DependencyStep) scriptPath() string {
	return filepath.Join(s.root, filepath.FromSlash(DependencyScript))
}
