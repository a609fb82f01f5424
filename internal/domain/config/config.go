// Package config loads and validates the comfyboot configuration document.
package config

import (
	"time"

	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Built-in defaults.
const (
	DefaultFileName     = "comfyboot.yaml"
	DefaultRetries      = 3
	DefaultPython       = "python3"
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8188
	DefaultPollInterval = 500 * time.Millisecond
	DefaultReadyTimeout = 10 * time.Minute
)

// Options are the feature switches of a provisioning run.
type Options struct {
	UpdateComfyUI         bool
	InstallManager        bool
	InstallCustomNodeDeps bool
	InstallFlux           bool
	InstallFluxAPI        bool
	SkipIfInstalled       bool
}

// Model is one model weight file to download.
type Model struct {
	ID          string
	Description string
	// Path is the expected file location, relative to the workspace unless
	// absolute. Its presence satisfies the download.
	Path    string
	Source  ports.ModelSource
	Enabled bool
}

// Workflow is one workflow document to fetch into the workspace.
type Workflow struct {
	ID       string
	URL      string
	Filename string
}

// Launch controls how the service is started and exposed.
type Launch struct {
	Host         string
	Port         int
	PollInterval time.Duration
	ReadyTimeout time.Duration
	Tunnel       bool
	Args         []string
}

// Config is the validated configuration of a run. It is built once by Load
// or Parse and only read afterwards; accessors return copies.
type Config struct {
	source    string
	workspace string
	stateDir  string
	region    mirror.Region
	retries   int
	python    string
	options   Options
	models    []Model
	workflows []Workflow
	launch    Launch
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		region:  mirror.RegionAuto,
		retries: DefaultRetries,
		python:  DefaultPython,
		options: Options{
			UpdateComfyUI:         true,
			InstallManager:        true,
			InstallCustomNodeDeps: true,
			InstallFlux:           true,
			InstallFluxAPI:        true,
			SkipIfInstalled:       true,
		},
		models: defaultModels(),
		launch: Launch{
			Host:         DefaultHost,
			Port:         DefaultPort,
			PollInterval: DefaultPollInterval,
			ReadyTimeout: DefaultReadyTimeout,
			Tunnel:       true,
			Args:         []string{"--dont-print-server"},
		},
	}
}

func defaultModels() []Model {
	model := func(id, description, repo, file, dir string) Model {
		return Model{
			ID:          id,
			Description: description,
			Path:        dir + "/" + file,
			Source:      ports.ModelSource{Repo: repo, File: file, Dir: dir},
			Enabled:     true,
		}
	}
	return []Model{
		model("flux1-dev", "Downloading FLUX1-DEV model", "AI-ModelScope/FLUX.1-dev-gguf", "flux1-dev-Q5_1.gguf", "models/unet"),
		model("t5xxl-fp16", "Downloading T5-XXL encoder", "AI-ModelScope/flux_text_encoders", "t5xxl_fp16.safetensors", "models/clip"),
		model("clip-l", "Downloading CLIP-L encoder", "AI-ModelScope/flux_text_encoders", "clip_l.safetensors", "models/clip"),
		model("t5xxl-fp8", "Downloading T5-XXL FP8 encoder", "AI-ModelScope/flux_text_encoders", "t5xxl_fp8_e4m3fn.safetensors", "models/clip"),
		model("vae", "Downloading VAE model", "AI-ModelScope/FLUX.1-dev", "ae.safetensors", "models/vae"),
	}
}

// Source returns the file the configuration was loaded from, or "" for the
// built-in defaults.
func (c *Config) Source() string { return c.source }

// Workspace returns the configured workspace override, or "".
func (c *Config) Workspace() string { return c.workspace }

// StateDir returns the directory holding completion markers. Empty means the
// working directory.
func (c *Config) StateDir() string { return c.stateDir }

// Region returns the configured mirror region.
func (c *Config) Region() mirror.Region { return c.region }

// Retries returns the attempt bound for download steps.
func (c *Config) Retries() int { return c.retries }

// Python returns the base interpreter used to create the environment.
func (c *Config) Python() string { return c.python }

// Options returns the feature switches.
func (c *Config) Options() Options { return c.options }

// Models returns every configured model in plan order.
func (c *Config) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// EnabledModels returns the models to download, in plan order.
func (c *Config) EnabledModels() []Model {
	var out []Model
	for _, m := range c.models {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// Workflows returns the workflows to fetch, ordered by id.
func (c *Config) Workflows() []Workflow {
	out := make([]Workflow, len(c.workflows))
	copy(out, c.workflows)
	return out
}

// Launch returns the launch settings.
func (c *Config) Launch() Launch {
	l := c.launch
	l.Args = append([]string(nil), c.launch.Args...)
	return l
}

// WithRegion returns a copy of c with the region replaced. The CLI uses it
// for the --region override.
func (c *Config) WithRegion(region mirror.Region) *Config {
	cp := *c
	cp.region = region
	return &cp
}
