// Package repo provides the clone and update steps shared by the providers
// that check out git repositories.
package repo

import (
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// CloneStep clones a repository into a directory that does not exist yet.
type CloneStep struct {
	id          compiler.StepID
	description string
	url         string
	dest        string
	scm         ports.SourceControl
	fs          ports.FileSystem
}

// NewCloneStep creates a CloneStep.
func NewCloneStep(id, description, url, dest string, scm ports.SourceControl, fs ports.FileSystem) *CloneStep {
	return &CloneStep{
		id:          compiler.MustNewStepID(id),
		description: description,
		url:         url,
		dest:        dest,
		scm:         scm,
		fs:          fs,
	}
}

// ID returns the step identifier.
func (s *CloneStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *CloneStep) Description() string {
	return s.description
}

// Phase returns the setup phase.
func (s *CloneStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// URL returns the repository URL.
func (s *CloneStep) URL() string {
	return s.url
}

// Dest returns the checkout directory.
func (s *CloneStep) Dest() string {
	return s.dest
}

// Check reports satisfied when the checkout directory already exists.
func (s *CloneStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.IsDir(s.dest) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *CloneStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "repository", s.dest, s.url), nil
}

// Apply clones the repository.
func (s *CloneStep) Apply(ctx compiler.RunContext) error {
	return s.scm.Clone(ctx.Context(), s.url, s.dest)
}

// Explain provides a human-readable explanation.
func (s *CloneStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		s.description,
		fmt.Sprintf("Clones %s into %s unless the directory already exists.", s.url, s.dest),
		[]string{s.url},
	)
}

// PullStep updates an existing checkout.
type PullStep struct {
	id          compiler.StepID
	description string
	dir         string
	scm         ports.SourceControl
}

// NewPullStep creates a PullStep.
func NewPullStep(id, description, dir string, scm ports.SourceControl) *PullStep {
	return &PullStep{
		id:          compiler.MustNewStepID(id),
		description: description,
		dir:         dir,
		scm:         scm,
	}
}

// ID returns the step identifier.
func (s *PullStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *PullStep) Description() string {
	return s.description
}

// Phase returns the setup phase.
func (s *PullStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Dir returns the checkout directory.
func (s *PullStep) Dir() string {
	return s.dir
}

// Check always reports needs-apply; the ledger keeps the update to one run.
func (s *PullStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PullStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "repository", s.dir, "git pull"), nil
}

// Apply pulls the latest changes.
func (s *PullStep) Apply(ctx compiler.RunContext) error {
	return s.scm.Pull(ctx.Context(), s.dir)
}

// Explain provides a human-readable explanation.
func (s *PullStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		s.description,
		fmt.Sprintf("Runs git pull in %s.", s.dir),
		nil,
	)
}
