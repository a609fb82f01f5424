// Package workspace resolves the application directory for a run.
package workspace

import (
	"path/filepath"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Well-known names inside and around the workspace.
const (
	DirName        = "ComfyUI"
	EntryPoint     = "main.py"
	CustomNodesDir = "custom_nodes"
)

// Workspace is the resolved application directory.
type Workspace struct {
	root string
}

// Resolve picks the workspace directory once per run:
//  1. a configured override, relative to cwd unless absolute;
//  2. a sibling ../ComfyUI directory, if present;
//  3. ./ComfyUI, which the clone step will create.
func Resolve(cwd, override string, fs ports.FileSystem) Workspace {
	if override != "" {
		return Workspace{root: ports.ResolveUnder(cwd, override)}
	}
	sibling := filepath.Join(filepath.Dir(filepath.Clean(cwd)), DirName)
	if fs.IsDir(sibling) {
		return Workspace{root: sibling}
	}
	return Workspace{root: filepath.Join(cwd, DirName)}
}

// New returns a workspace rooted at dir.
func New(dir string) Workspace {
	return Workspace{root: filepath.Clean(dir)}
}

// Root returns the workspace directory.
func (w Workspace) Root() string {
	return w.root
}

// Path joins elements onto the workspace root. Absolute paths are returned
// unchanged.
func (w Workspace) Path(elem string) string {
	return ports.ResolveUnder(w.root, elem)
}

// EntryPointPath returns the application's entry point.
func (w Workspace) EntryPointPath() string {
	return filepath.Join(w.root, EntryPoint)
}

// CustomNode returns the directory of a custom node repository.
func (w Workspace) CustomNode(name string) string {
	return filepath.Join(w.root, CustomNodesDir, name)
}

// Installed reports whether the entry point exists.
func (w Workspace) Installed(fs ports.FileSystem) bool {
	return fs.Exists(w.EntryPointPath())
}
