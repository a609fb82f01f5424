// Package models compiles one download step per enabled model weight file.
package models

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Provider implements compiler.Provider for model weights.
type Provider struct {
	downloader ports.ModelDownloader
	fs         ports.FileSystem
}

// NewProvider creates a new models provider.
func NewProvider(downloader ports.ModelDownloader, fs ports.FileSystem) *Provider {
	return &Provider{downloader: downloader, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "models"
}

// Compile returns a download step for each enabled model, in configured
// order.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	cfg := ctx.Config()
	ws := ctx.Workspace()

	models := cfg.EnabledModels()
	steps := make([]compiler.Step, 0, len(models))
	for _, m := range models {
		steps = append(steps, &DownloadStep{
			id:          compiler.MustNewStepID("download-" + m.ID),
			description: m.Description,
			source:      m.Source,
			artifact:    ws.Path(m.Path),
			workdir:     ws.Root(),
			retries:     cfg.Retries(),
			downloader:  p.downloader,
			fs:          p.fs,
		})
	}
	return steps, nil
}
