package config

// rawDocument mirrors the on-disk document. Pointer fields distinguish an
// absent key from a zero value so defaults survive partial documents.
type rawDocument struct {
	Workspace string                 `yaml:"workspace" toml:"workspace"`
	StateDir  string                 `yaml:"state_dir" toml:"state_dir"`
	Region    string                 `yaml:"region" toml:"region"`
	Retries   *int                   `yaml:"retries" toml:"retries"`
	Python    string                 `yaml:"python" toml:"python"`
	Options   rawOptions             `yaml:"options" toml:"options"`
	Models    map[string]rawModel    `yaml:"models" toml:"models"`
	Workflows map[string]rawWorkflow `yaml:"workflows" toml:"workflows"`
	Launch    rawLaunch              `yaml:"launch" toml:"launch"`
}

type rawOptions struct {
	UpdateComfyUI         *bool `yaml:"update_comfyui" toml:"update_comfyui"`
	InstallManager        *bool `yaml:"install_manager" toml:"install_manager"`
	InstallCustomNodeDeps *bool `yaml:"install_custom_node_deps" toml:"install_custom_node_deps"`
	InstallFlux           *bool `yaml:"install_flux" toml:"install_flux"`
	InstallFluxAPI        *bool `yaml:"install_flux_api" toml:"install_flux_api"`
	SkipIfInstalled       *bool `yaml:"skip_if_installed" toml:"skip_if_installed"`
}

type rawModel struct {
	Command     string `yaml:"command" toml:"command"`
	Repo        string `yaml:"repo" toml:"repo"`
	File        string `yaml:"file" toml:"file"`
	Dir         string `yaml:"dir" toml:"dir"`
	Description string `yaml:"description" toml:"description"`
	Path        string `yaml:"path" toml:"path"`
	Enabled     *bool  `yaml:"enabled" toml:"enabled"`
}

type rawWorkflow struct {
	URL      string `yaml:"url" toml:"url"`
	Filename string `yaml:"filename" toml:"filename"`
}

type rawLaunch struct {
	Host         string   `yaml:"host" toml:"host"`
	Port         *int     `yaml:"port" toml:"port"`
	PollInterval string   `yaml:"poll_interval" toml:"poll_interval"`
	ReadyTimeout string   `yaml:"ready_timeout" toml:"ready_timeout"`
	Tunnel       *bool    `yaml:"tunnel" toml:"tunnel"`
	Args         []string `yaml:"args" toml:"args"`
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
