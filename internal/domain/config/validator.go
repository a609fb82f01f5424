package config

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// idPattern matches ids usable inside step names and marker file names.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// build validates raw on top of the defaults. Every problem is collected
// before returning.
func build(raw *rawDocument, source string) (*Config, error) {
	cfg := Default()
	cfg.source = source
	errs := &ErrorList{}

	cfg.workspace = strings.TrimSpace(raw.Workspace)
	cfg.stateDir = strings.TrimSpace(raw.StateDir)
	if raw.Python != "" {
		cfg.python = raw.Python
	}

	region, err := mirror.ParseRegion(raw.Region)
	if err != nil {
		errs.AddValidation("region", err.Error(), "Use auto, default or cn.")
	}
	cfg.region = region

	if raw.Retries != nil {
		if *raw.Retries < 1 {
			errs.AddValidation("retries", fmt.Sprintf("must be at least 1, got %d", *raw.Retries), "")
		}
		cfg.retries = *raw.Retries
	}

	applyBool(&cfg.options.UpdateComfyUI, raw.Options.UpdateComfyUI)
	applyBool(&cfg.options.InstallManager, raw.Options.InstallManager)
	applyBool(&cfg.options.InstallCustomNodeDeps, raw.Options.InstallCustomNodeDeps)
	applyBool(&cfg.options.InstallFlux, raw.Options.InstallFlux)
	applyBool(&cfg.options.InstallFluxAPI, raw.Options.InstallFluxAPI)
	applyBool(&cfg.options.SkipIfInstalled, raw.Options.SkipIfInstalled)

	cfg.models = mergeModels(cfg.models, raw.Models, errs)
	cfg.workflows = buildWorkflows(raw.Workflows, errs)
	buildLaunch(&cfg.launch, raw.Launch, errs)

	if err := errs.AsError(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeModels overlays configured models on the defaults. Entries with a
// default id replace it in place; new ids follow in id order.
func mergeModels(defaults []Model, raw map[string]rawModel, errs *ErrorList) []Model {
	index := make(map[string]int, len(defaults))
	for i, m := range defaults {
		index[m.ID] = i
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	models := defaults
	for _, id := range ids {
		field := "models." + id
		if !idPattern.MatchString(id) {
			errs.AddValidation(field, "id may only contain letters, digits, '.', '_' and '-'", "")
			continue
		}

		var base *Model
		if i, ok := index[id]; ok {
			base = &models[i]
		}
		m, ok := buildModel(id, raw[id], base, errs)
		if !ok {
			continue
		}
		if i, exists := index[id]; exists {
			models[i] = m
		} else {
			models = append(models, m)
		}
	}
	return models
}

func buildModel(id string, raw rawModel, base *Model, errs *ErrorList) (Model, bool) {
	field := "models." + id
	m := Model{ID: id, Enabled: true}
	if base != nil {
		m = *base
	}

	structured := raw.Repo != "" || raw.File != "" || raw.Dir != ""
	switch {
	case raw.Command != "" && structured:
		errs.AddValidation(field, "set either command or repo/file/dir, not both", "")
		return m, false
	case raw.Command != "":
		m.Source = ports.ModelSource{Command: raw.Command}
		m.Path = ""
	case structured:
		if raw.Repo == "" || raw.File == "" {
			errs.AddValidation(field, "repo and file are required", "Example: repo: AI-ModelScope/FLUX.1-dev, file: ae.safetensors")
			return m, false
		}
		dir := raw.Dir
		if dir == "" {
			dir = "models"
		}
		m.Source = ports.ModelSource{Repo: raw.Repo, File: raw.File, Dir: dir}
		m.Path = path.Join(dir, raw.File)
	case base == nil:
		errs.AddValidation(field, "a download source is required", "Set command, or repo and file.")
		return m, false
	}

	if raw.Path != "" {
		m.Path = raw.Path
	}
	if m.Path == "" {
		errs.AddValidation(field+".path", "required when command is used", "Set path to the file the command produces.")
		return m, false
	}
	if raw.Description != "" {
		m.Description = raw.Description
	}
	if m.Description == "" {
		m.Description = "Downloading " + id
	}
	applyBool(&m.Enabled, raw.Enabled)
	return m, true
}

func buildWorkflows(raw map[string]rawWorkflow, errs *ErrorList) []Workflow {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var workflows []Workflow
	for _, id := range ids {
		field := "workflows." + id
		w := raw[id]
		if !idPattern.MatchString(id) {
			errs.AddValidation(field, "id may only contain letters, digits, '.', '_' and '-'", "")
			continue
		}
		u, err := url.Parse(w.URL)
		if w.URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs.AddValidation(field+".url", "an http or https URL is required", "")
			continue
		}
		name := w.Filename
		if name == "" {
			name = path.Base(u.Path)
		}
		if name == "" || name == "/" || name == "." || strings.ContainsAny(name, `/\`) {
			errs.AddValidation(field+".filename", fmt.Sprintf("invalid file name %q", name), "Set filename explicitly.")
			continue
		}
		workflows = append(workflows, Workflow{ID: id, URL: w.URL, Filename: name})
	}
	return workflows
}

func buildLaunch(l *Launch, raw rawLaunch, errs *ErrorList) {
	if raw.Host != "" {
		l.Host = raw.Host
	}
	if raw.Port != nil {
		if *raw.Port < 1 || *raw.Port > 65535 {
			errs.AddValidation("launch.port", fmt.Sprintf("out of range: %d", *raw.Port), "")
		}
		l.Port = *raw.Port
	}
	if d, ok := parseDuration("launch.poll_interval", raw.PollInterval, errs); ok {
		l.PollInterval = d
	}
	if d, ok := parseDuration("launch.ready_timeout", raw.ReadyTimeout, errs); ok {
		l.ReadyTimeout = d
	}
	applyBool(&l.Tunnel, raw.Tunnel)
	if raw.Args != nil {
		l.Args = append([]string(nil), raw.Args...)
	}
}

func parseDuration(field, raw string, errs *ErrorList) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		errs.AddValidation(field, fmt.Sprintf("invalid duration %q", raw), "Use a positive Go duration such as 500ms or 10m.")
		return 0, false
	}
	return d, true
}
