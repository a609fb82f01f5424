// Package modelscope downloads model weights with the modelscope CLI.
package modelscope

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// Downloader implements ports.ModelDownloader.
type Downloader struct {
	runner ports.CommandRunner
	binDir string
}

// NewDownloader creates a Downloader. When binDir is set the modelscope
// executable is taken from it and it is prepended to PATH for raw commands;
// otherwise modelscope is looked up on PATH.
func NewDownloader(runner ports.CommandRunner, binDir string) *Downloader {
	return &Downloader{runner: runner, binDir: binDir}
}

// Download fetches src into workdir. A raw command runs through sh -c;
// structured sources run "modelscope download --model=<repo> --local_dir
// <dir> <file>".
func (d *Downloader) Download(ctx context.Context, description string, src ports.ModelSource, workdir string) error {
	if src.Command != "" {
		return d.runner.Run(ctx, ports.Invocation{
			Description: description,
			Command:     "sh",
			Args:        []string{"-c", src.Command},
			Dir:         workdir,
			Env:         d.env(),
		})
	}

	if err := validation.ValidateModelRepo(src.Repo); err != nil {
		return err
	}
	if err := validation.ValidateFileName(src.File); err != nil {
		return err
	}
	dir := src.Dir
	if dir == "" {
		dir = "models"
	}
	if err := validation.ValidatePath(dir); err != nil {
		return fmt.Errorf("invalid model directory: %w", err)
	}

	return d.runner.Run(ctx, ports.Invocation{
		Description: description,
		Command:     d.executable(),
		Args:        []string{"download", "--model=" + src.Repo, "--local_dir", localDir(dir), src.File},
		Dir:         workdir,
		Env:         d.env(),
	})
}

func (d *Downloader) executable() string {
	if d.binDir == "" {
		return "modelscope"
	}
	return filepath.Join(d.binDir, "modelscope")
}

func (d *Downloader) env() []string {
	if d.binDir == "" {
		return nil
	}
	return []string{"PATH=" + d.binDir + string(os.PathListSeparator) + os.Getenv("PATH")}
}

// localDir renders dir the way the modelscope CLI expects a directory
// argument: relative paths start with ./ and every path ends with a slash.
func localDir(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, "./") {
		dir = "./" + dir
	}
	return dir + "/"
}

var _ ports.ModelDownloader = (*Downloader)(nil)
