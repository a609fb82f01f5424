package config

import (
	"os"
	"path/filepath"
)

// EnvVar names the environment variable holding an explicit document path.
const EnvVar = "COMFYBOOT_CONFIG"

// fileNames are the document names searched in each directory, in order.
var fileNames = []string{DefaultFileName, "comfyboot.yml", "comfyboot.toml"}

// Finder discovers the configuration document when none is given on the
// command line.
type Finder struct {
	cwd     string
	homeDir string
	getenv  func(string) string
}

// NewFinder creates a Finder searching relative to cwd.
func NewFinder(cwd string) *Finder {
	home, _ := os.UserHomeDir()
	return &Finder{cwd: cwd, homeDir: home, getenv: os.Getenv}
}

// NewFinderWithEnv creates a Finder with a custom home directory and
// environment lookup (for testing).
func NewFinderWithEnv(cwd, home string, getenv func(string) string) *Finder {
	return &Finder{cwd: cwd, homeDir: home, getenv: getenv}
}

// Explicit returns the path named by EnvVar, or "".
func (f *Finder) Explicit() string {
	if p := f.getenv(EnvVar); p != "" {
		return resolve(f.cwd, p)
	}
	return ""
}

// Candidates returns every searched path in priority order: the working
// directory first, then $XDG_CONFIG_HOME/comfyboot.
func (f *Finder) Candidates() []string {
	xdg := f.getenv("XDG_CONFIG_HOME")
	if xdg == "" && f.homeDir != "" {
		xdg = filepath.Join(f.homeDir, ".config")
	}

	paths := make([]string, 0, 2*len(fileNames))
	for _, name := range fileNames {
		paths = append(paths, filepath.Join(f.cwd, name))
	}
	if xdg != "" {
		for _, name := range fileNames {
			paths = append(paths, filepath.Join(xdg, "comfyboot", name))
		}
	}
	return paths
}

// Find returns the first existing candidate, or "" when there is none.
func (f *Finder) Find() string {
	for _, p := range f.Candidates() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func resolve(cwd, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}
