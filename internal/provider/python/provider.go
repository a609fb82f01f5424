// Package python compiles the virtual environment and tool installation
// steps.
package python

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// MinimumVersion is the oldest base interpreter accepted for the venv.
const MinimumVersion = "3.9"

// Tools are the packages installed into the environment for downloads and
// the GGUF loader.
var Tools = []string{"modelscope", "gguf"}

// Provider implements compiler.Provider for the Python environment.
type Provider struct {
	env ports.PythonEnvironment
	fs  ports.FileSystem
}

// NewProvider creates a new python provider.
func NewProvider(env ports.PythonEnvironment, fs ports.FileSystem) *Provider {
	return &Provider{env: env, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "python"
}

// Compile returns the environment steps. The package index step is only
// added when the run uses a non-default index.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	steps := []compiler.Step{NewVenvStep(p.env, p.fs)}

	if index := ctx.Mirrors().PipIndex; index != mirror.Default().PipIndex {
		steps = append(steps, NewIndexStep(p.env, index))
	}

	steps = append(steps,
		NewInstallStep("pip-upgrade", "Upgrading pip", p.env, "pip"),
		NewInstallStep("python-tools", "Installing modelscope and gguf", p.env, Tools...),
	)
	return steps, nil
}
