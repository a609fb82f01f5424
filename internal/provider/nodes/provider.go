// Package nodes compiles the custom node checkouts and their dependency
// installer.
package nodes

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/provider/repo"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// DependencyScript installs the requirements of every custom node. It is
// shipped with ComfyUI-Manager and run from the workspace root.
const DependencyScript = "custom_nodes/ComfyUI-Manager/scripts/colab-dependencies.py"

// Provider implements compiler.Provider for custom nodes.
type Provider struct {
	scm ports.SourceControl
	env ports.PythonEnvironment
	fs  ports.FileSystem
}

// NewProvider creates a new nodes provider.
func NewProvider(scm ports.SourceControl, env ports.PythonEnvironment, fs ports.FileSystem) *Provider {
	return &Provider{scm: scm, env: env, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "nodes"
}

// Compile returns the node steps selected by the configuration options.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	opts := ctx.Config().Options()
	mirrors := ctx.Mirrors()
	ws := ctx.Workspace()

	var steps []compiler.Step

	if opts.InstallFlux {
		dir := ws.CustomNode(validation.RepoDirName(mirrors.GGUF))
		steps = append(steps, repo.NewCloneStep("install-gguf-node", "Installing FLUX-GGUF node", mirrors.GGUF, dir, p.scm, p.fs))
	}

	if opts.InstallManager {
		dir := ws.CustomNode(validation.RepoDirName(mirrors.Manager))
		steps = append(steps,
			repo.NewCloneStep("install-manager", "Installing ComfyUI-Manager", mirrors.Manager, dir, p.scm, p.fs),
			repo.NewPullStep("update-manager", "Updating ComfyUI-Manager", dir, p.scm),
		)
	}

	if opts.InstallFluxAPI {
		dir := ws.CustomNode(validation.RepoDirName(mirrors.Comfyscope))
		steps = append(steps,
			repo.NewCloneStep("install-comfyscope", "Installing FLUX-API node", mirrors.Comfyscope, dir, p.scm, p.fs),
			repo.NewPullStep("update-comfyscope", "Updating FLUX-API node", dir, p.scm),
		)
	}

	if opts.InstallCustomNodeDeps {
		steps = append(steps, NewDependencyStep(p.env, p.fs, ws.Root()))
	}

	return steps, nil
}
