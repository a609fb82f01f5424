package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/comfyboot/internal/adapters/logging"
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/domain/execution"
	"github.com/felixgeelhaar/comfyboot/internal/domain/mirror"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/testutil"
	"github.com/felixgeelhaar/comfyboot/internal/testutil/mocks"
)

var allSteps = []string{
	"venv",
	"pip-upgrade",
	"python-tools",
	"clone-comfyui",
	"update-comfyui",
	"install-gguf-node",
	"install-manager",
	"update-manager",
	"install-comfyscope",
	"update-comfyscope",
	"custom-node-deps",
	"download-flux1-dev",
	"download-t5xxl-fp16",
	"download-clip-l",
	"download-t5xxl-fp8",
	"download-vae",
	"download-cloudflared",
	"install-cloudflared",
}

type fakeLocator struct {
	country string
	err     error
	calls   int
}

func (f *fakeLocator) Locate(context.Context) (ports.Location, error) {
	f.calls++
	return ports.Location{CountryCode: f.country}, f.err
}

// toolRunner simulates the side effects of the external tools on the real
// filesystem: clones create checkouts, venv creates the interpreter and
// downloads create their target files.
func toolRunner(t *testing.T) *mocks.CommandRunner {
	t.Helper()
	runner := mocks.NewCommandRunner()
	runner.AddResult("python3", []string{"--version"}, ports.CommandResult{Stdout: "Python 3.11.4\n"})
	runner.OnRun(func(inv ports.Invocation) error {
		switch {
		case inv.Command == "git" && inv.Args[0] == "clone":
			dest := inv.Args[2]
			require.NoError(t, os.MkdirAll(dest, 0o755))
			switch filepath.Base(dest) {
			case "ComfyUI":
				testutil.TouchFile(t, filepath.Join(dest, "main.py"))
			case "ComfyUI-Manager":
				testutil.TouchFile(t, filepath.Join(dest, "scripts", "colab-dependencies.py"))
			}
		case inv.Command == "python3" && len(inv.Args) == 3 && inv.Args[1] == "venv":
			testutil.TouchFile(t, filepath.Join(inv.Args[2], "bin", "python"))
		case strings.HasSuffix(inv.Command, "/modelscope"):
			testutil.TouchFile(t, filepath.Join(inv.Dir, inv.Args[3], inv.Args[4]))
		case inv.Command == "wget":
			testutil.TouchFile(t, inv.Args[1])
		}
		return nil
	})
	return runner
}

func notInstalled(string) (string, error) {
	return "", errors.New("not found")
}

func testConfig(t *testing.T, dir, extra string) *config.Config {
	t.Helper()
	doc := fmt.Sprintf("workspace: %s\nregion: default\n%s", filepath.Join(dir, "ComfyUI"), extra)
	cfg, err := config.Parse([]byte(doc), config.FormatYAML, "comfyboot.yaml")
	require.NoError(t, err)
	return cfg
}

func newApp(dir string, runner ports.CommandRunner, out *bytes.Buffer, opts ...Option) *App {
	base := []Option{
		WithRunner(runner),
		WithWorkingDir(dir),
		WithLocator(&fakeLocator{}),
		WithLookPath(notInstalled),
		WithRetryDelay(0),
	}
	return New(out, logging.NewNopLogger(), append(base, opts...)...)
}

func TestApp_RunProvisionsEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolRunner(t)
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), testConfig(t, dir, ""), RunOptions{NoLaunch: true})
	require.NoError(t, err)

	testutil.AssertMarkers(t, dir, allSteps...)

	assert.Len(t, runner.Calls(), 19)
	assert.Equal(t, 4, runner.CallCount("git clone"))
	assert.Equal(t, 3, runner.CallCount("git pull"))
	assert.Equal(t, 5, runner.CallCount(filepath.Join(dir, "venv", "bin", "modelscope")))
	assert.Equal(t, 1, runner.CallCount(filepath.Join(dir, "venv", "bin", "python")+" custom_nodes/ComfyUI-Manager/scripts/colab-dependencies.py"))
	assert.Equal(t, 1, runner.CallCount("dpkg -i "+filepath.Join(dir, "cloudflared-linux-amd64.deb")))
	assert.Equal(t, 1, runner.CallCount("wget"), "the package is downloaded once")

	assert.FileExists(t, filepath.Join(dir, "ComfyUI", "models", "unet", "flux1-dev-Q5_1.gguf"))
	testutil.AssertFileNotExists(t, filepath.Join(dir, "cloudflared-linux-amd64.deb.part"))
	assert.Contains(t, out.String(), "18 applied")
}

func TestApp_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	cfg := testConfig(t, dir, "")

	require.NoError(t, newApp(dir, toolRunner(t), &out).Run(context.Background(), cfg, RunOptions{NoLaunch: true}))

	second := mocks.NewCommandRunner().Strict()
	out.Reset()
	require.NoError(t, newApp(dir, second, &out).Run(context.Background(), cfg, RunOptions{NoLaunch: true}))

	assert.Empty(t, second.Calls())
	assert.Contains(t, out.String(), "0 applied")
}

// exitedService registers a service process that has already exited, so a
// launch returns as soon as it starts.
func exitedService(runner *mocks.CommandRunner, interpreter string) {
	svc := mocks.NewProcess("")
	runner.AddProcess(interpreter, []string{"main.py", "--dont-print-server"}, svc)
	svc.Exit(nil)
}

func launchConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return testConfig(t, dir, fmt.Sprintf("launch:\n  port: %d\n  tunnel: false\n  poll_interval: 10ms\n", port))
}

func TestApp_InstalledWorkspaceSkipsProvisioning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	runner := toolRunner(t)
	exitedService(runner, "python3")
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), launchConfig(t, dir), RunOptions{})
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1, "nothing but the service runs")
	assert.Equal(t, "python3", calls[0].Command, "without an environment the base interpreter runs the service")
	assert.Equal(t, []string{"main.py", "--dont-print-server"}, calls[0].Args)
	assert.Equal(t, filepath.Join(dir, "ComfyUI"), calls[0].Dir)

	testutil.AssertNoMarkers(t, dir)
	assert.Contains(t, out.String(), "0 applied, 0 already present, 18 skipped")
}

func TestApp_LaunchUsesWorkspaceEnvironment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	interpreter := filepath.Join(dir, "ComfyUI", ".venv", "bin", "python")
	testutil.TouchFile(t, interpreter)
	runner := mocks.NewCommandRunner().Strict()
	exitedService(runner, interpreter)
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), launchConfig(t, dir), RunOptions{})
	require.NoError(t, err)

	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, interpreter, runner.Calls()[0].Command)
}

func TestApp_InstalledWorkspaceStillDownloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	runner := toolRunner(t)
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), testConfig(t, dir, ""), RunOptions{Phase: compiler.PhaseDownload})
	require.NoError(t, err)

	assert.Len(t, runner.Calls(), 5, "down fetches models into an installed workspace")
	assert.Equal(t, 0, runner.CallCount("git"))
	testutil.AssertFileNotExists(t, filepath.Join(dir, "venv.done"))
	assert.FileExists(t, filepath.Join(dir, "download-vae.done"))
}

func TestApp_InstalledWorkspaceWithoutSkip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	runner := toolRunner(t)
	var out bytes.Buffer

	cfg := testConfig(t, dir, "options:\n  skip_if_installed: false\n")
	require.NoError(t, newApp(dir, runner, &out).Run(context.Background(), cfg, RunOptions{NoLaunch: true}))

	assert.Equal(t, 0, runner.CallCount("git clone https://github.com/comfyanonymous/ComfyUI.git"), "an existing checkout is not cloned")
	assert.Equal(t, 1, runner.CallCount("python3 -m venv"))
	assert.FileExists(t, filepath.Join(dir, "clone-comfyui.done"))
}

func TestApp_DownloadPhaseOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolRunner(t)
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), testConfig(t, dir, ""), RunOptions{Phase: compiler.PhaseDownload})
	require.NoError(t, err)

	assert.Len(t, runner.Calls(), 5)
	assert.Equal(t, 5, runner.CallCount(filepath.Join(dir, "venv", "bin", "modelscope")))
	assert.NoFileExists(t, filepath.Join(dir, "clone-comfyui.done"))
}

func TestApp_StepFailureStopsRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolRunner(t)
	runner.AddError("git", []string{"clone", "https://github.com/comfyanonymous/ComfyUI.git", filepath.Join(dir, "ComfyUI")},
		&ports.CommandError{Description: "Cloning ComfyUI", CommandLine: "git clone", ExitCode: 128})
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), testConfig(t, dir, ""), RunOptions{NoLaunch: true})
	require.Error(t, err)

	var stepErr *execution.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "clone-comfyui", stepErr.StepID.String())
	assert.True(t, strings.HasPrefix(err.Error(), "Error during Cloning ComfyUI repository:"))

	assert.FileExists(t, filepath.Join(dir, "python-tools.done"))
	assert.NoFileExists(t, filepath.Join(dir, "clone-comfyui.done"))
	assert.Equal(t, 0, runner.CallCount("git pull"))
}

func TestApp_DownloadRetriesThenFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	runner := toolRunner(t)
	modelscope := filepath.Join(dir, "venv", "bin", "modelscope")
	runner.AddError(modelscope, []string{"download", "--model=AI-ModelScope/FLUX.1-dev-gguf", "--local_dir", "./models/unet/", "flux1-dev-Q5_1.gguf"},
		errors.New("connection reset"))
	var out bytes.Buffer

	err := newApp(dir, runner, &out).Run(context.Background(), testConfig(t, dir, "retries: 2\n"), RunOptions{Phase: compiler.PhaseDownload})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, 2, runner.CallCount(modelscope+" download --model=AI-ModelScope/FLUX.1-dev-gguf"))
	assert.NoFileExists(t, filepath.Join(dir, "download-flux1-dev.done"))
}

func TestApp_PlanResolvesRegion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	locator := &fakeLocator{country: "CN"}
	var out bytes.Buffer
	a := newApp(dir, mocks.NewCommandRunner().Strict(), &out, WithLocator(locator))

	cfg, err := config.Parse([]byte("workspace: "+filepath.Join(dir, "ComfyUI")+"\n"), config.FormatYAML, "comfyboot.yaml")
	require.NoError(t, err)

	plan, err := a.Plan(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, 1, locator.calls)

	var ids []string
	for _, e := range plan.Entries() {
		ids = append(ids, e.Step().ID().String())
	}
	assert.Contains(t, ids, "pip-index")
	assert.Equal(t, len(allSteps)+1, plan.Len())

	testutil.AssertNoMarkers(t, dir)

	a.PrintPlan(plan, nil)
	assert.Contains(t, out.String(), "Setup")
	assert.Contains(t, out.String(), "Download")
	assert.Contains(t, out.String(), "gitee.com/honwee/ComfyUI.git")
	assert.Contains(t, out.String(), "not applicable", "the dependency script is absent before cloning")
	assert.NotContains(t, out.String(), "see https://")

	out.Reset()
	ec := compiler.NewExplainContext().WithVerbose(true)
	a.PrintPlan(plan, &ec)
	assert.Contains(t, out.String(), "Create the Python virtual environment")
	assert.Contains(t, out.String(), "see https://gitee.com/honwee/ComfyUI.git")
}

func TestApp_PlanListsRecordedSteps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"venv", "pip-upgrade", "retired-step"} {
		testutil.TouchFile(t, filepath.Join(dir, name+".done"))
	}
	var out bytes.Buffer
	a := newApp(dir, mocks.NewCommandRunner().Strict(), &out)

	plan, err := a.Plan(context.Background(), testConfig(t, dir, ""), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pip-upgrade", "retired-step", "venv"}, plan.Recorded())
	assert.Equal(t, execution.ReasonRecorded, plan.Entries()[0].Reason())

	a.PrintPlan(plan, nil)
	assert.Contains(t, out.String(), "Recorded: pip-upgrade, retired-step, venv")
}

func TestApp_PlanLocationFailureUsesDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	locator := &fakeLocator{err: errors.New("timeout")}
	var out bytes.Buffer
	a := newApp(dir, mocks.NewCommandRunner().Strict(), &out, WithLocator(locator))

	cfg, err := config.Parse([]byte("workspace: "+filepath.Join(dir, "ComfyUI")+"\n"), config.FormatYAML, "comfyboot.yaml")
	require.NoError(t, err)

	plan, err := a.Plan(context.Background(), cfg, compiler.PhaseSetup)
	require.NoError(t, err)
	for _, e := range plan.Entries() {
		assert.NotEqual(t, "pip-index", e.Step().ID().String())
		assert.Equal(t, compiler.PhaseSetup, e.Step().Phase())
	}
}

func TestApp_LaunchReturnsServiceExit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "main.py"))
	runner := toolRunner(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	svc := mocks.NewProcess("")
	interpreter := filepath.Join(dir, "venv", "bin", "python")
	testutil.TouchFile(t, interpreter)
	testutil.TouchFile(t, filepath.Join(dir, "ComfyUI", "venv", "bin", "python"))
	runner.AddProcess(interpreter, []string{"main.py", "--dont-print-server"}, svc)
	exitErr := errors.New("exit status 1")
	svc.Exit(exitErr)

	var out bytes.Buffer
	cfg := testConfig(t, dir, fmt.Sprintf("launch:\n  port: %d\n  tunnel: false\n  poll_interval: 10ms\n", port))
	err = newApp(dir, runner, &out).Run(context.Background(), cfg, RunOptions{})
	require.ErrorIs(t, err, exitErr)

	var started []ports.Invocation
	for _, inv := range runner.Calls() {
		if inv.Command == interpreter {
			started = append(started, inv)
		}
	}
	require.Len(t, started, 1, "the managed environment wins over the workspace one")
	assert.Equal(t, filepath.Join(dir, "ComfyUI"), started[0].Dir)
}

func TestApp_AlternateRegionConfiguresPackageIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := toolRunner(t)
	var out bytes.Buffer

	cfg := testConfig(t, dir, "")
	err := newApp(dir, runner, &out).Run(context.Background(), cfg.WithRegion(mirror.RegionCN), RunOptions{Phase: compiler.PhaseSetup})
	require.NoError(t, err)

	testutil.AssertMarkers(t, dir, "pip-index", "clone-comfyui")
	testutil.AssertFileContains(t, filepath.Join(dir, "venv", "pip.conf"), "https://mirrors.aliyun.com/pypi/simple/")
	assert.Equal(t, 1, runner.CallCount("git clone https://gitee.com/honwee/ComfyUI.git"))
	assert.Equal(t, 1, runner.CallCount("wget -O "+filepath.Join(dir, "cloudflared-linux-amd64.deb.part")+" https://modelscope.oss-cn-beijing.aliyuncs.com/"))
	assert.Equal(t, 0, runner.CallCount(filepath.Join(dir, "venv", "bin", "modelscope")))
}
