// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Invocation describes one external command.
type Invocation struct {
	// Description is the human label used in progress and error output.
	Description string
	Command     string
	Args        []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// String returns the command line as it would be typed.
func (i Invocation) String() string {
	if len(i.Args) == 0 {
		return i.Command
	}
	return i.Command + " " + strings.Join(i.Args, " ")
}

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Dir     string
}

// CommandError reports a command that exited non-zero or could not start.
type CommandError struct {
	Description string
	CommandLine string
	ExitCode    int
	Err         error
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("command %q exited with status %d", e.CommandLine, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.CommandLine, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Process is a started long-running child process.
type Process interface {
	// Stderr returns the process error stream when it was requested with
	// StartOptions.CaptureStderr, nil otherwise.
	Stderr() io.Reader
	// Wait blocks until the process exits.
	Wait() error
	// Kill terminates the process.
	Kill() error
}

// StartOptions controls how a long-running process is attached.
type StartOptions struct {
	CaptureStderr bool
}

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run executes synchronously, forwarding output to the process streams.
	Run(ctx context.Context, inv Invocation) error
	// Capture executes synchronously and returns the collected output.
	Capture(ctx context.Context, inv Invocation) (CommandResult, error)
	// Start spawns the command without waiting for it.
	Start(ctx context.Context, inv Invocation, opts StartOptions) (Process, error)
}
