// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// RealRunner executes commands on the local host.
type RealRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewRealRunner creates a RealRunner that forwards child output to the
// process's standard streams.
func NewRealRunner() *RealRunner {
	return &RealRunner{stdout: os.Stdout, stderr: os.Stderr}
}

// WithOutput returns a runner forwarding child output to the given writers.
func (r *RealRunner) WithOutput(stdout, stderr io.Writer) *RealRunner {
	return &RealRunner{stdout: stdout, stderr: stderr}
}

// Run executes the invocation, streaming its output.
func (r *RealRunner) Run(ctx context.Context, inv ports.Invocation) error {
	cmd := r.command(ctx, inv)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		return toCommandError(inv, err)
	}
	return nil
}

// Capture executes the invocation and returns its output. A non-zero exit is
// reported through the result, not as an error.
func (r *RealRunner) Capture(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	cmd := r.command(ctx, inv)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, toCommandError(inv, err)
	}

	return result, nil
}

// Start spawns the invocation and returns without waiting.
func (r *RealRunner) Start(ctx context.Context, inv ports.Invocation, opts ports.StartOptions) (ports.Process, error) {
	cmd := r.command(ctx, inv)
	cmd.Stdout = r.stdout

	proc := &process{cmd: cmd, inv: inv}
	if opts.CaptureStderr {
		pipe, err := cmd.StderrPipe()
		if err != nil {
			return nil, toCommandError(inv, err)
		}
		proc.stderr = pipe
	} else {
		cmd.Stderr = r.stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, toCommandError(inv, err)
	}
	return proc, nil
}

func (r *RealRunner) command(ctx context.Context, inv ports.Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	return cmd
}

type process struct {
	cmd    *exec.Cmd
	inv    ports.Invocation
	stderr io.Reader
}

func (p *process) Stderr() io.Reader {
	return p.stderr
}

func (p *process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return toCommandError(p.inv, err)
	}
	return nil
}

func (p *process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func toCommandError(inv ports.Invocation, err error) error {
	cmdErr := &ports.CommandError{
		Description: inv.Description,
		CommandLine: inv.String(),
		Err:         err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return cmdErr
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
