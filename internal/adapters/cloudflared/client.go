// Package cloudflared installs and runs the cloudflared quick-tunnel client.
package cloudflared

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
	"github.com/felixgeelhaar/comfyboot/internal/validation"
)

// Binary is the tunnel client executable name.
const Binary = "cloudflared"

// Client implements ports.TunnelProvider.
type Client struct {
	runner   ports.CommandRunner
	lookPath func(string) (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithLookPath replaces the PATH lookup used by Installed.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Client) {
		c.lookPath = fn
	}
}

// NewClient creates a Client.
func NewClient(runner ports.CommandRunner, opts ...Option) *Client {
	c := &Client{runner: runner, lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Installed reports whether cloudflared is on PATH.
func (c *Client) Installed() bool {
	_, err := c.lookPath(Binary)
	return err == nil
}

// Install runs "dpkg -i <packagePath>".
func (c *Client) Install(ctx context.Context, packagePath string) error {
	if err := validation.ValidatePath(packagePath); err != nil {
		return fmt.Errorf("invalid package: %w", err)
	}
	return c.runner.Run(ctx, ports.Invocation{
		Description: "Installing cloudflared",
		Command:     "dpkg",
		Args:        []string{"-i", packagePath},
	})
}

// Open starts "cloudflared tunnel --url <localURL>" with its error stream
// captured; cloudflared announces the public URL there.
func (c *Client) Open(ctx context.Context, localURL string) (ports.Process, error) {
	if err := validation.ValidateURL(localURL); err != nil {
		return nil, err
	}
	return c.runner.Start(ctx, ports.Invocation{
		Description: "Starting cloudflared",
		Command:     Binary,
		Args:        []string{"tunnel", "--url", localURL},
	}, ports.StartOptions{CaptureStderr: true})
}

var _ ports.TunnelProvider = (*Client)(nil)
