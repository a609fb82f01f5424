package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/testutil/mocks"
)

func TestVenv_Paths(t *testing.T) {
	t.Parallel()

	v := NewVenv(mocks.NewCommandRunner(), "python3", "/srv/state/venv")
	assert.Equal(t, "/srv/state/venv", v.Root())
	assert.Equal(t, "/srv/state/venv/bin/python", v.Interpreter())
	assert.Equal(t, "/srv/state/venv/bin/modelscope", v.Bin("modelscope"))
	assert.Equal(t, "/srv/state/venv/pip.conf", v.ConfigPath())
}

func TestVenv_BaseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result ports.CommandResult
		want   string
	}{
		{"stdout", ports.CommandResult{Stdout: "Python 3.11.4\n"}, "3.11.4"},
		{"stderr", ports.CommandResult{Stderr: "Python 2.7.18\n"}, "2.7.18"},
		{"two components", ports.CommandResult{Stdout: "Python 3.12"}, "3.12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := mocks.NewCommandRunner()
			runner.AddResult("python3", []string{"--version"}, tt.result)

			got, err := NewVenv(runner, "python3", "/venv").BaseVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVenv_BaseVersionErrors(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("python3", []string{"--version"}, ports.CommandResult{Stdout: "not python"})
	_, err := NewVenv(runner, "python3", "/venv").BaseVersion(context.Background())
	assert.ErrorContains(t, err, "unrecognised version output")

	runner = mocks.NewCommandRunner()
	runner.AddResult("python3", []string{"--version"}, ports.CommandResult{ExitCode: 127, Stderr: "not found"})
	_, err = NewVenv(runner, "python3", "/venv").BaseVersion(context.Background())
	var cmdErr *ports.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 127, cmdErr.ExitCode)
}

func TestVenv_Create(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	require.NoError(t, NewVenv(runner, "python3.11", "/srv/state/venv").Create(context.Background()))
	assert.Equal(t, []string{"python3.11 -m venv /srv/state/venv"}, runner.CallLines())
}

func TestVenv_Install(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	v := NewVenv(runner, "python3", "/venv")

	require.NoError(t, v.Install(context.Background(), "Upgrading pip", "--upgrade", "pip"))
	require.NoError(t, v.Install(context.Background(), "Installing tools", "modelscope", "gguf"))

	assert.Equal(t, []string{
		"/venv/bin/python -m pip install --upgrade pip",
		"/venv/bin/python -m pip install modelscope gguf",
	}, runner.CallLines())
	assert.Equal(t, "Installing tools", runner.Calls()[1].Description)
}

func TestVenv_InstallRejectsInvalidPackages(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	v := NewVenv(runner, "python3", "/venv")

	assert.Error(t, v.Install(context.Background(), "x"))
	assert.Error(t, v.Install(context.Background(), "x", "--index-url=http://evil"))
	assert.Error(t, v.Install(context.Background(), "x", "gguf; rm -rf /"))
	assert.Empty(t, runner.Calls())
}

func TestVenv_RunScript(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	v := NewVenv(runner, "python3", "/venv")

	err := v.RunScript(context.Background(), "Installing custom nodes dependencies", "custom_nodes/ComfyUI-Manager/scripts/colab-dependencies.py", "/srv/ComfyUI")
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/venv/bin/python custom_nodes/ComfyUI-Manager/scripts/colab-dependencies.py", calls[0].String())
	assert.Equal(t, "/srv/ComfyUI", calls[0].Dir)
}

func TestVenv_ConfigureIndex(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "venv")
	v := NewVenv(mocks.NewCommandRunner(), "python3", root)

	assert.Empty(t, v.ConfiguredIndex())

	require.NoError(t, v.ConfigureIndex("https://mirrors.aliyun.com/pypi/simple/"))
	assert.Equal(t, "https://mirrors.aliyun.com/pypi/simple/", v.ConfiguredIndex())

	data, err := os.ReadFile(v.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[global]")
}

func TestVenv_ConfigureIndexKeepsOtherSettings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	v := NewVenv(mocks.NewCommandRunner(), "python3", root)
	require.NoError(t, os.WriteFile(v.ConfigPath(), []byte("[global]\ntimeout = 60\n\n[install]\nno-cache-dir = true\n"), 0o644))

	require.NoError(t, v.ConfigureIndex("https://pypi.org/simple"))

	data, err := os.ReadFile(v.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout")
	assert.Contains(t, string(data), "no-cache-dir")
	assert.Equal(t, "https://pypi.org/simple", v.ConfiguredIndex())
}

func TestVenv_ConfigureIndexRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	v := NewVenv(mocks.NewCommandRunner(), "python3", t.TempDir())
	assert.Error(t, v.ConfigureIndex("ftp://mirror/simple"))
}
