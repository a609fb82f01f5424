package python

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/provider/commandutil"
	"github.com/felixgeelhaar/comfyboot/internal/provider/versionutil"
)

// VenvStep creates the virtual environment.
type VenvStep struct {
	id  compiler.StepID
	env ports.PythonEnvironment
	fs  ports.FileSystem
}

// NewVenvStep creates a new VenvStep.
func NewVenvStep(env ports.PythonEnvironment, fs ports.FileSystem) *VenvStep {
	return &VenvStep{
		id:  compiler.MustNewStepID("venv"),
		env: env,
		fs:  fs,
	}
}

// ID returns the step identifier.
func (s *VenvStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *VenvStep) Description() string {
	return "Creating virtual environment"
}

// Phase returns the setup phase.
func (s *VenvStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Check reports satisfied when the environment's interpreter exists.
func (s *VenvStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.env.Interpreter()) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *VenvStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "venv", s.env.Root(), "python >= "+MinimumVersion), nil
}

// Apply verifies the base interpreter version and creates the environment.
func (s *VenvStep) Apply(ctx compiler.RunContext) error {
	version, err := s.env.BaseVersion(ctx.Context())
	if err != nil {
		return commandutil.DescribeMissing("python", err)
	}

	ok, err := versionutil.AtLeast(version, MinimumVersion)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("python %s is too old, %s or newer is required", version, MinimumVersion)
	}

	return s.env.Create(ctx.Context())
}

// Explain provides a human-readable explanation.
func (s *VenvStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Create the Python virtual environment",
		fmt.Sprintf("Creates %s with the base interpreter after checking it is at least Python %s.", s.env.Root(), MinimumVersion),
		[]string{"https://docs.python.org/3/library/venv.html"},
	)
}

// IndexStep points pip at a mirror package index.
type IndexStep struct {
	id    compiler.StepID
	env   ports.PythonEnvironment
	index string
}

// NewIndexStep creates a new IndexStep.
func NewIndexStep(env ports.PythonEnvironment, index string) *IndexStep {
	return &IndexStep{
		id:    compiler.MustNewStepID("pip-index"),
		env:   env,
		index: index,
	}
}

// ID returns the step identifier.
func (s *IndexStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *IndexStep) Description() string {
	return "Configuring package index"
}

// Phase returns the setup phase.
func (s *IndexStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Check reports satisfied when pip already uses the index.
func (s *IndexStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.env.ConfiguredIndex() == s.index {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *IndexStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "pip.conf", "index-url", s.index), nil
}

// Apply writes the index into the environment's pip configuration.
func (s *IndexStep) Apply(_ compiler.RunContext) error {
	return s.env.ConfigureIndex(s.index)
}

// Explain provides a human-readable explanation.
func (s *IndexStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Use a mirror package index",
		"Sets global.index-url in the environment's pip.conf so later installs use "+s.index+".",
		[]string{"https://pip.pypa.io/en/stable/topics/configuration/"},
	)
}

// InstallStep installs or upgrades packages in the environment.
type InstallStep struct {
	id          compiler.StepID
	description string
	env         ports.PythonEnvironment
	packages    []string
}

// NewInstallStep creates a new InstallStep.
func NewInstallStep(id, description string, env ports.PythonEnvironment, packages ...string) *InstallStep {
	return &InstallStep{
		id:          compiler.MustNewStepID(id),
		description: description,
		env:         env,
		packages:    packages,
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *InstallStep) Description() string {
	return s.description
}

// Phase returns the setup phase.
func (s *InstallStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Packages returns the packages installed by the step.
func (s *InstallStep) Packages() []string {
	return append([]string(nil), s.packages...)
}

// Check always reports needs-apply; completion is tracked by the ledger.
func (s *InstallStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *InstallStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "package", strings.Join(s.packages, " "), "latest"), nil
}

// Apply runs pip install --upgrade.
func (s *InstallStep) Apply(ctx compiler.RunContext) error {
	args := append([]string{"--upgrade"}, s.packages...)
	return s.env.Install(ctx.Context(), s.description, args...)
}

// Explain provides a human-readable explanation.
func (s *InstallStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		s.description,
		"Runs pip install --upgrade "+strings.Join(s.packages, " ")+" with the environment's interpreter.",
		nil,
	)
}
