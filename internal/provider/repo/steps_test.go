package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/testutil/mocks"
)

type fakeSCM struct {
	cloned []string
	pulled []string
	err    error
}

func (f *fakeSCM) Clone(_ context.Context, url, dest string) error {
	f.cloned = append(f.cloned, url+" -> "+dest)
	return f.err
}

func (f *fakeSCM) Pull(_ context.Context, dir string) error {
	f.pulled = append(f.pulled, dir)
	return f.err
}

func runCtx() compiler.RunContext {
	return compiler.NewRunContext(context.Background())
}

func TestCloneStep(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	scm := &fakeSCM{}
	step := NewCloneStep("clone-comfyui", "Cloning ComfyUI repository", "https://github.com/comfyanonymous/ComfyUI.git", "/srv/ComfyUI", scm, fs)

	assert.Equal(t, "clone-comfyui", step.ID().String())
	assert.Equal(t, "Cloning ComfyUI repository", step.Description())
	assert.Equal(t, compiler.PhaseSetup, step.Phase())

	status, err := step.Check(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusNeedsApply, status)

	diff, err := step.Plan(runCtx())
	require.NoError(t, err)
	assert.Equal(t, "+ repository /srv/ComfyUI (https://github.com/comfyanonymous/ComfyUI.git)", diff.Summary())

	require.NoError(t, step.Apply(runCtx()))
	assert.Equal(t, []string{"https://github.com/comfyanonymous/ComfyUI.git -> /srv/ComfyUI"}, scm.cloned)

	fs.AddDir("/srv/ComfyUI")
	status, err = step.Check(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusSatisfied, status)

	assert.Contains(t, step.Explain(compiler.NewExplainContext()).Detail(), "/srv/ComfyUI")
}

func TestCloneStep_ApplyError(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 128")
	step := NewCloneStep("clone-x", "Cloning x", "https://github.com/a/x.git", "/srv/x", &fakeSCM{err: cause}, mocks.NewFileSystem())

	assert.ErrorIs(t, step.Apply(runCtx()), cause)
}

func TestPullStep(t *testing.T) {
	t.Parallel()

	scm := &fakeSCM{}
	step := NewPullStep("update-comfyui", "Updating ComfyUI repository", "/srv/ComfyUI", scm)

	status, err := step.Check(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusNeedsApply, status)

	diff, err := step.Plan(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeModify, diff.Type())

	require.NoError(t, step.Apply(runCtx()))
	assert.Equal(t, []string{"/srv/ComfyUI"}, scm.pulled)
	assert.Equal(t, compiler.PhaseSetup, step.Phase())
}
