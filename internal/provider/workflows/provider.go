// Package workflows compiles the steps that fetch workflow documents into
// the workspace's user directory.
package workflows

import (
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Dir is where the application looks for saved workflows, relative to the
// workspace.
const Dir = "user/default/workflows"

// Provider implements compiler.Provider for workflow documents.
type Provider struct {
	fetcher ports.Fetcher
	fs      ports.FileSystem
}

// NewProvider creates a new workflows provider.
func NewProvider(fetcher ports.Fetcher, fs ports.FileSystem) *Provider {
	return &Provider{fetcher: fetcher, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "workflows"
}

// Compile returns one fetch step per configured workflow.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	cfg := ctx.Config()
	ws := ctx.Workspace()

	var steps []compiler.Step
	for _, w := range cfg.Workflows() {
		steps = append(steps, &FetchStep{
			id:          compiler.MustNewStepID("workflow-" + w.ID),
			description: fmt.Sprintf("Downloading workflow %s", w.Filename),
			url:         w.URL,
			artifact:    ws.Path(Dir + "/" + w.Filename),
			retries:     cfg.Retries(),
			fetcher:     p.fetcher,
			fs:          p.fs,
		})
	}
	return steps, nil
}

// FetchStep downloads one workflow document.
type FetchStep struct {
	id          compiler.StepID
	description string
	url         string
	artifact    string
	retries     int
	fetcher     ports.Fetcher
	fs          ports.FileSystem
}

// ID returns the step identifier.
func (s *FetchStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *FetchStep) Description() string {
	return s.description
}

// Phase returns the download phase.
func (s *FetchStep) Phase() compiler.Phase {
	return compiler.PhaseDownload
}

// Artifact returns the workflow file path.
func (s *FetchStep) Artifact() string {
	return s.artifact
}

// Retries returns the attempt bound.
func (s *FetchStep) Retries() int {
	return s.retries
}

// Check reports satisfied when the workflow file exists.
func (s *FetchStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.artifact) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *FetchStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "workflow", s.artifact, s.url), nil
}

// Apply fetches the document.
func (s *FetchStep) Apply(ctx compiler.RunContext) error {
	return s.fetcher.Fetch(ctx.Context(), s.description, s.url, s.artifact)
}

// Explain provides a human-readable explanation.
func (s *FetchStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Download a workflow",
		fmt.Sprintf("Saves %s as %s so it appears in the workflow browser.", s.url, s.artifact),
		nil,
	)
}
