// Package fetch downloads single files with wget.
package fetch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// PartialSuffix marks a download in progress. The destination only appears
// once the transfer has finished.
const PartialSuffix = ".part"

// Wget implements ports.Fetcher.
type Wget struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewWget creates a Wget fetcher.
func NewWget(runner ports.CommandRunner, fs ports.FileSystem) *Wget {
	return &Wget{runner: runner, fs: fs}
}

// Fetch downloads url to dest through a partial file, so a failed transfer
// never leaves dest behind.
func (w *Wget) Fetch(ctx context.Context, description, url, dest string) error {
	if err := validation.ValidateURL(url); err != nil {
		return err
	}
	if err := validation.ValidatePath(dest); err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}
	if err := w.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}

	partial := dest + PartialSuffix
	err := w.runner.Run(ctx, ports.Invocation{
		Description: description,
		Command:     "wget",
		Args:        []string{"-O", partial, url},
	})
	if err != nil {
		_ = w.fs.Remove(partial)
		return err
	}

	if !w.fs.Exists(partial) {
		return fmt.Errorf("download of %s produced no file", url)
	}
	if err := w.fs.Rename(partial, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

var _ ports.Fetcher = (*Wget)(nil)
