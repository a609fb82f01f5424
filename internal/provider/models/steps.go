package models

import (
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// DownloadStep retrieves one model file. It is an artifact step: the file's
// presence satisfies it and the executor retries failed downloads.
type DownloadStep struct {
	id          compiler.StepID
	description string
	source      ports.ModelSource
	artifact    string
	workdir     string
	retries     int
	downloader  ports.ModelDownloader
	fs          ports.FileSystem
}

// ID returns the step identifier.
func (s *DownloadStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *DownloadStep) Description() string {
	return s.description
}

// Phase returns the download phase.
func (s *DownloadStep) Phase() compiler.Phase {
	return compiler.PhaseDownload
}

// Artifact returns the model file path.
func (s *DownloadStep) Artifact() string {
	return s.artifact
}

// Retries returns the attempt bound.
func (s *DownloadStep) Retries() int {
	return s.retries
}

// Source returns where the model is downloaded from.
func (s *DownloadStep) Source() ports.ModelSource {
	return s.source
}

// Check reports satisfied when the model file exists.
func (s *DownloadStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.artifact) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DownloadStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "model", s.artifact, s.origin()), nil
}

// Apply downloads the model from the workspace root.
func (s *DownloadStep) Apply(ctx compiler.RunContext) error {
	return s.downloader.Download(ctx.Context(), s.description, s.source, s.workdir)
}

// Explain provides a human-readable explanation.
func (s *DownloadStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Download model weights",
		fmt.Sprintf("Fetches %s into %s. Up to %d attempts are made; an existing file counts as done.", s.origin(), s.artifact, s.retries),
		[]string{"https://modelscope.cn/docs"},
	)
}

func (s *DownloadStep) origin() string {
	if s.source.Command != "" {
		return s.source.Command
	}
	return s.source.Repo + "/" + s.source.File
}
