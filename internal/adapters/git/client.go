// Package git clones and updates repositories with the git command line.
package git

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// Client implements ports.SourceControl.
type Client struct {
	runner ports.CommandRunner
}

// NewClient creates a Client that runs git through runner.
func NewClient(runner ports.CommandRunner) *Client {
	return &Client{runner: runner}
}

// Clone runs "git clone repoURL dest".
func (c *Client) Clone(ctx context.Context, repoURL, dest string) error {
	if err := validation.ValidateGitRemoteURL(repoURL); err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}
	if err := validation.ValidateGitPath(dest); err != nil {
		return fmt.Errorf("invalid clone destination: %w", err)
	}

	return c.runner.Run(ctx, ports.Invocation{
		Description: "Cloning " + validation.RepoDirName(repoURL),
		Command:     "git",
		Args:        []string{"clone", repoURL, dest},
	})
}

// Pull runs "git pull" inside repoDir.
func (c *Client) Pull(ctx context.Context, repoDir string) error {
	if err := validation.ValidateGitPath(repoDir); err != nil {
		return fmt.Errorf("invalid repository directory: %w", err)
	}

	return c.runner.Run(ctx, ports.Invocation{
		Description: "Updating repository",
		Command:     "git",
		Args:        []string{"pull"},
		Dir:         repoDir,
	})
}

var _ ports.SourceControl = (*Client)(nil)
