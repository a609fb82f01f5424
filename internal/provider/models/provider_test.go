package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/domain/workspace"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/testutil/mocks"
)

type download struct {
	description string
	source      ports.ModelSource
	workdir     string
}

type fakeDownloader struct {
	calls []download
	err   error
}

func (f *fakeDownloader) Download(_ context.Context, description string, src ports.ModelSource, workdir string) error {
	f.calls = append(f.calls, download{description, src, workdir})
	return f.err
}

func compile(t *testing.T, cfg *config.Config, dl ports.ModelDownloader, fs ports.FileSystem) []compiler.Step {
	t.Helper()
	ctx := compiler.NewCompileContext(cfg, workspace.New("/srv/ComfyUI"), mirror.Default())
	steps, err := NewProvider(dl, fs).Compile(ctx)
	require.NoError(t, err)
	return steps
}

func TestProvider_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "models", NewProvider(nil, nil).Name())
}

func TestProvider_CompileDefaults(t *testing.T) {
	t.Parallel()

	steps := compile(t, config.Default(), &fakeDownloader{}, mocks.NewFileSystem())
	require.Len(t, steps, 5)

	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID().String()
		assert.Equal(t, compiler.PhaseDownload, s.Phase())
	}
	assert.Equal(t, []string{
		"download-flux1-dev",
		"download-t5xxl-fp16",
		"download-clip-l",
		"download-t5xxl-fp8",
		"download-vae",
	}, ids)

	first := compiler.AsArtifact(steps[0])
	require.NotNil(t, first)
	assert.Equal(t, "/srv/ComfyUI/models/unet/flux1-dev-Q5_1.gguf", first.Artifact())
	assert.Equal(t, 3, first.Retries())
	assert.Equal(t, "Downloading FLUX1-DEV model", first.Description())
}

func TestProvider_CompileSkipsDisabledModels(t *testing.T) {
	t.Parallel()

	doc := "retries: 5\nmodels:\n  t5xxl-fp8:\n    enabled: false\n"
	cfg, err := config.Parse([]byte(doc), config.FormatYAML, "comfyboot.yaml")
	require.NoError(t, err)

	steps := compile(t, cfg, &fakeDownloader{}, mocks.NewFileSystem())
	require.Len(t, steps, 4)
	for _, s := range steps {
		assert.NotEqual(t, "download-t5xxl-fp8", s.ID().String())
		assert.Equal(t, 5, compiler.AsArtifact(s).Retries())
	}
}

func TestDownloadStep_Check(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	step := compile(t, config.Default(), &fakeDownloader{}, fs)[4]
	rc := compiler.NewRunContext(context.Background())

	status, err := step.Check(rc)
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusNeedsApply, status)

	fs.AddFile("/srv/ComfyUI/models/vae/ae.safetensors", "weights")
	status, err = step.Check(rc)
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusSatisfied, status)
}

func TestDownloadStep_Apply(t *testing.T) {
	t.Parallel()

	dl := &fakeDownloader{}
	step := compile(t, config.Default(), dl, mocks.NewFileSystem())[0]

	require.NoError(t, step.Apply(compiler.NewRunContext(context.Background())))
	require.Len(t, dl.calls, 1)
	assert.Equal(t, "Downloading FLUX1-DEV model", dl.calls[0].description)
	assert.Equal(t, "/srv/ComfyUI", dl.calls[0].workdir)
	assert.Equal(t, ports.ModelSource{
		Repo: "AI-ModelScope/FLUX.1-dev-gguf",
		File: "flux1-dev-Q5_1.gguf",
		Dir:  "models/unet",
	}, dl.calls[0].source)
}

func TestDownloadStep_ApplyError(t *testing.T) {
	t.Parallel()

	dl := &fakeDownloader{err: errors.New("network down")}
	step := compile(t, config.Default(), dl, mocks.NewFileSystem())[0]

	err := step.Apply(compiler.NewRunContext(context.Background()))
	assert.EqualError(t, err, "network down")
}

func TestDownloadStep_PlanShowsCommand(t *testing.T) {
	t.Parallel()

	doc := "models:\n  lora:\n    command: modelscope download --model=acme/lora\n    path: models/loras/style.safetensors\n"
	cfg, err := config.Parse([]byte(doc), config.FormatYAML, "comfyboot.yaml")
	require.NoError(t, err)

	steps := compile(t, cfg, &fakeDownloader{}, mocks.NewFileSystem())
	last := steps[len(steps)-1]
	require.Equal(t, "download-lora", last.ID().String())

	diff, err := last.Plan(compiler.NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeAdd, diff.Type())
	assert.Equal(t, "/srv/ComfyUI/models/loras/style.safetensors", diff.Name())
	assert.Equal(t, "modelscope download --model=acme/lora", diff.Detail())
}
