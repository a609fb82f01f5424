package retry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/comfyboot/internal/adapters/logging"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/testutil/mocks"
)

const artifact = "/srv/ComfyUI/models/vae/ae.safetensors"

var errDownload = errors.New("connection reset")

func newTestRunner(attempts int, fs ports.FileSystem) *Runner {
	return NewRunner(attempts, WithDelay(0), WithFileSystem(fs))
}

func TestRunner_InvokesAtMostAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	r := newTestRunner(3, mocks.NewFileSystem())

	err := r.Do(context.Background(), "Downloading VAE model", artifact, func(context.Context) error {
		calls++
		return errDownload
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "Downloading VAE model", exhausted.Description)
	assert.ErrorIs(t, err, errDownload)
	assert.Equal(t, "Downloading VAE model failed after 3 attempts: connection reset", err.Error())
}

func TestRunner_ExistingArtifactSkipsCommand(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(artifact, "weights")
	calls := 0

	err := newTestRunner(3, fs).Do(context.Background(), "Downloading VAE model", artifact, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRunner_ArtifactAppearingBetweenAttempts(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	calls := 0

	err := newTestRunner(3, fs).Do(context.Background(), "Downloading VAE model", artifact, func(context.Context) error {
		calls++
		// Another process finishes the download while this attempt fails.
		fs.AddFile(artifact, "weights")
		return errDownload
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunner_SucceedsAfterFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	err := newTestRunner(3, mocks.NewFileSystem()).Do(context.Background(), "Downloading", artifact, func(context.Context) error {
		calls++
		if calls == 1 {
			return errDownload
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunner_SuccessWithoutArtifactIsSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := newTestRunner(3, mocks.NewFileSystem()).Do(context.Background(), "Downloading", artifact, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunner_EmptyArtifactDisablesCheck(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("", "")
	calls := 0

	err := newTestRunner(2, fs).Do(context.Background(), "Running", "", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunner_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := newTestRunner(5, mocks.NewFileSystem()).Do(ctx, "Downloading", artifact, func(context.Context) error {
		calls++
		cancel()
		return errDownload
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, calls)
}

func TestRunner_AttemptBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewRunner(0).Attempts())
	assert.Equal(t, 3, NewRunner(DefaultAttempts).Attempts())

	calls := 0
	err := newTestRunner(3, mocks.NewFileSystem()).DoWithAttempts(context.Background(), 1, "Downloading", artifact, func(context.Context) error {
		calls++
		return errDownload
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunner_LogsRetries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewConsoleLogger(logging.WithOutput(&buf), logging.WithLevel(ports.LevelDebug))
	r := NewRunner(2, WithDelay(0), WithFileSystem(mocks.NewFileSystem()), WithLogger(logger))

	_ = r.Do(context.Background(), "Downloading VAE model", artifact, func(context.Context) error {
		return errDownload
	})

	assert.Contains(t, buf.String(), "attempt failed, retrying")
	assert.Contains(t, buf.String(), `step="Downloading VAE model"`)
}
