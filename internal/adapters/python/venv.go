// Package python manages a virtual environment through the python and pip
// command lines.
package python

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// ConfigFile is the pip configuration file inside the environment.
const ConfigFile = "pip.conf"

var versionPattern = regexp.MustCompile(`Python (\d+\.\d+(?:\.\d+)?)`)

// Venv implements ports.PythonEnvironment for a venv created by the base
// interpreter.
type Venv struct {
	runner ports.CommandRunner
	base   string
	root   string
}

// NewVenv creates a Venv rooted at root, created with the base interpreter.
func NewVenv(runner ports.CommandRunner, base, root string) *Venv {
	return &Venv{runner: runner, base: base, root: root}
}

// Root returns the environment directory.
func (v *Venv) Root() string {
	return v.root
}

// Interpreter returns the environment's python executable.
func (v *Venv) Interpreter() string {
	return v.Bin("python")
}

// Bin returns the path of an executable installed in the environment.
func (v *Venv) Bin(name string) string {
	return filepath.Join(v.root, "bin", name)
}

// BaseVersion runs "<base> --version" and returns the reported version.
// Older interpreters print the version on stderr.
func (v *Venv) BaseVersion(ctx context.Context) (string, error) {
	inv := ports.Invocation{
		Description: "Checking python version",
		Command:     v.base,
		Args:        []string{"--version"},
	}
	result, err := v.runner.Capture(ctx, inv)
	if err != nil {
		return "", err
	}
	if !result.Success() {
		return "", &ports.CommandError{
			Description: inv.Description,
			CommandLine: inv.String(),
			ExitCode:    result.ExitCode,
			Err:         fmt.Errorf("%s", strings.TrimSpace(result.Stderr)),
		}
	}

	m := versionPattern.FindStringSubmatch(result.Stdout + "\n" + result.Stderr)
	if m == nil {
		return "", fmt.Errorf("unrecognised version output from %s: %q", v.base, strings.TrimSpace(result.Stdout+result.Stderr))
	}
	return m[1], nil
}

// Create runs "<base> -m venv <root>".
func (v *Venv) Create(ctx context.Context) error {
	if err := validation.ValidatePath(v.root); err != nil {
		return fmt.Errorf("invalid environment directory: %w", err)
	}
	return v.runner.Run(ctx, ports.Invocation{
		Description: "Creating virtual environment",
		Command:     v.base,
		Args:        []string{"-m", "venv", v.root},
	})
}

// Install runs "pip install" with the environment's interpreter. The only
// accepted option is --upgrade.
func (v *Venv) Install(ctx context.Context, description string, packages ...string) error {
	if len(packages) == 0 {
		return fmt.Errorf("no packages to install")
	}

	args := []string{"-m", "pip", "install"}
	for _, pkg := range packages {
		if pkg != "--upgrade" {
			if err := validation.ValidatePipPackage(pkg); err != nil {
				return err
			}
		}
		args = append(args, pkg)
	}

	return v.runner.Run(ctx, ports.Invocation{
		Description: description,
		Command:     v.Interpreter(),
		Args:        args,
	})
}

// RunScript runs script with the environment's interpreter inside dir.
func (v *Venv) RunScript(ctx context.Context, description, script, dir string) error {
	if err := validation.ValidatePath(script); err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}
	return v.runner.Run(ctx, ports.Invocation{
		Description: description,
		Command:     v.Interpreter(),
		Args:        []string{script},
		Dir:         dir,
	})
}

// ConfigPath returns the path of the environment's pip configuration.
func (v *Venv) ConfigPath() string {
	return filepath.Join(v.root, ConfigFile)
}

// ConfiguredIndex returns global.index-url from the pip configuration.
func (v *Venv) ConfiguredIndex() string {
	cfg, err := ini.Load(v.ConfigPath())
	if err != nil {
		return ""
	}
	section, err := cfg.GetSection("global")
	if err != nil {
		return ""
	}
	return section.Key("index-url").String()
}

// ConfigureIndex sets global.index-url in the pip configuration, keeping any
// other settings already present.
func (v *Venv) ConfigureIndex(indexURL string) error {
	if err := validation.ValidateURL(indexURL); err != nil {
		return fmt.Errorf("invalid package index: %w", err)
	}

	cfg, err := ini.LooseLoad(v.ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", v.ConfigPath(), err)
	}
	cfg.Section("global").Key("index-url").SetValue(indexURL)

	if err := os.MkdirAll(v.root, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", v.root, err)
	}
	if err := cfg.SaveTo(v.ConfigPath()); err != nil {
		return fmt.Errorf("failed to write %s: %w", v.ConfigPath(), err)
	}
	return nil
}

var _ ports.PythonEnvironment = (*Venv)(nil)
