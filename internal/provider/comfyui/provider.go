// Package comfyui compiles the steps that check out the ComfyUI application
// into the workspace.
package comfyui

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/provider/repo"
)

// Provider implements compiler.Provider for the ComfyUI checkout.
type Provider struct {
	scm ports.SourceControl
	fs  ports.FileSystem
}

// NewProvider creates a new comfyui provider.
func NewProvider(scm ports.SourceControl, fs ports.FileSystem) *Provider {
	return &Provider{scm: scm, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "comfyui"
}

// Compile clones ComfyUI into the workspace and, when enabled, updates it.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	root := ctx.Workspace().Root()
	steps := []compiler.Step{
		repo.NewCloneStep("clone-comfyui", "Cloning ComfyUI repository", ctx.Mirrors().ComfyUI, root, p.scm, p.fs),
	}
	if ctx.Config().Options().UpdateComfyUI {
		steps = append(steps, repo.NewPullStep("update-comfyui", "Updating ComfyUI repository", root, p.scm))
	}
	return steps, nil
}
