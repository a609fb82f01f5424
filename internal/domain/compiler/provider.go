package compiler

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/domain/workspace"
)

// Provider compiles one concern of the configuration into steps.
type Provider interface {
	// Name returns the provider's identifier (e.g., "python", "models").
	Name() string

	// Compile returns the provider's steps in execution order.
	Compile(ctx CompileContext) ([]Step, error)
}

// CompileContext carries the values resolved once per run.
type CompileContext struct {
	config    *config.Config
	workspace workspace.Workspace
	mirrors   mirror.Set
}

// NewCompileContext creates a CompileContext.
func NewCompileContext(cfg *config.Config, ws workspace.Workspace, mirrors mirror.Set) CompileContext {
	return CompileContext{
		config:    cfg,
		workspace: ws,
		mirrors:   mirrors,
	}
}

// Config returns the run configuration.
func (c CompileContext) Config() *config.Config {
	return c.config
}

// Workspace returns the resolved application directory.
func (c CompileContext) Workspace() workspace.Workspace {
	return c.workspace
}

// Mirrors returns the endpoint set chosen for this run.
func (c CompileContext) Mirrors() mirror.Set {
	return c.mirrors
}
