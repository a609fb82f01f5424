package mocks

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// ErrKilled is returned by Wait after Kill.
var ErrKilled = errors.New("process killed")

// Process is a controllable ports.Process. Wait blocks until Exit or Kill.
type Process struct {
	stderr io.Reader
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	err    error
	killed bool
}

// NewProcess creates a running process whose error stream yields stderr.
func NewProcess(stderr string) *Process {
	return NewProcessWithStderr(strings.NewReader(stderr))
}

// NewProcessWithStderr creates a running process reading its error stream
// from r, which may be the read side of an io.Pipe.
func NewProcessWithStderr(r io.Reader) *Process {
	return &Process{stderr: r, done: make(chan struct{})}
}

// Stderr returns the configured error stream.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Wait blocks until the process exits.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Kill terminates the process. Killing an exited process is a no-op.
func (p *Process) Kill() error {
	p.finish(ErrKilled, true)
	return nil
}

// Exit makes the process exit with err.
func (p *Process) Exit(err error) {
	p.finish(err, false)
}

// Killed reports whether Kill ended the process.
func (p *Process) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) finish(err error, killed bool) {
	p.once.Do(func() {
		p.mu.Lock()
		p.err = err
		p.killed = killed
		p.mu.Unlock()
		close(p.done)
	})
}

var _ ports.Process = (*Process)(nil)
