// Package launcher starts the ComfyUI service, waits for it to accept
// connections, and optionally exposes it through a public tunnel.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/comfyboot/internal/domain/config"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Launcher runs the service in the foreground while a single background
// goroutine gates the tunnel on service readiness.
type Launcher struct {
	runner   ports.CommandRunner
	tunnel   ports.TunnelProvider
	logger   ports.Logger
	out      io.Writer
	settings config.Launch

	mu        sync.Mutex
	interp    *statekit.Interpreter[Lifecycle]
	lifecycle *Lifecycle
}

// New creates a Launcher. tunnel may be nil when settings.Tunnel is false.
func New(runner ports.CommandRunner, tunnel ports.TunnelProvider, logger ports.Logger, out io.Writer, settings config.Launch) *Launcher {
	return &Launcher{
		runner:    runner,
		tunnel:    tunnel,
		logger:    logger,
		out:       out,
		settings:  settings,
		lifecycle: &Lifecycle{},
	}
}

// Address returns the host:port probed for readiness.
func (l *Launcher) Address() string {
	return net.JoinHostPort(l.settings.Host, strconv.Itoa(l.settings.Port))
}

// LocalURL returns the URL the tunnel forwards to.
func (l *Launcher) LocalURL() string {
	return "http://" + l.Address()
}

// State returns the current lifecycle state.
func (l *Launcher) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.interp == nil {
		return StateIdle
	}
	return State(l.interp.State().Value)
}

// URL returns the first public URL announced by the tunnel, if any.
func (l *Launcher) URL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lifecycle.URL
}

// Err returns the failure recorded when the launcher entered StateFailed.
func (l *Launcher) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lifecycle.Err
}

// Run starts service and blocks until it exits. The returned error is the one
// recorded on entering StateFailed: the service's exit error, or an error
// wrapping ErrNotReady when it was killed because it never became ready.
func (l *Launcher) Run(ctx context.Context, service ports.Invocation) error {
	if err := l.reset(); err != nil {
		return err
	}
	l.send(EventStart, nil)

	proc, err := l.runner.Start(ctx, service, ports.StartOptions{})
	if err != nil {
		return l.fail(err)
	}
	l.send(EventStarted, nil)

	watchCtx, cancel := context.WithCancel(ctx)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- l.watch(watchCtx, proc)
	}()

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = proc.Kill()
		case <-exited:
		}
	}()

	waitErr := proc.Wait()
	close(exited)
	cancel()

	if err := <-watchErr; err != nil {
		return l.fail(err)
	}
	if ctx.Err() != nil {
		l.send(EventStop, nil)
		return ctx.Err()
	}
	if waitErr != nil {
		return l.fail(waitErr)
	}
	l.send(EventStop, nil)
	return nil
}

// watch waits for readiness and then runs the tunnel. It returns only after
// ctx ends, which happens when the service exits.
func (l *Launcher) watch(ctx context.Context, proc ports.Process) error {
	addr := l.Address()
	if err := WaitReady(ctx, addr, l.settings.PollInterval, l.settings.ReadyTimeout); err != nil {
		if errors.Is(err, ErrNotReady) {
			l.logger.Error(ctx, "service did not become ready, stopping it", ports.F("address", addr), ports.Err(err))
			_ = proc.Kill()
			return err
		}
		return nil
	}
	l.send(EventReady, nil)

	// Only a machine that accepted READY opens the tunnel.
	if !l.settings.Tunnel || l.tunnel == nil || l.State() != StateReady {
		l.logger.Info(ctx, "ComfyUI finished loading", ports.F("url", l.LocalURL()))
		<-ctx.Done()
		return nil
	}

	l.logger.Info(ctx, "ComfyUI finished loading, trying to launch cloudflared (if it gets stuck here cloudflared is having issues)")
	l.send(EventTunnel, nil)

	tp, err := l.tunnel.Open(ctx, l.LocalURL())
	if err != nil {
		l.logger.Warn(ctx, "could not start tunnel", ports.Err(err))
		l.send(EventTunnelFailed, nil)
		<-ctx.Done()
		return nil
	}

	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		l.scan(ctx, tp)
	}()

	select {
	case <-ctx.Done():
		_ = tp.Kill()
	case <-scanned:
		<-ctx.Done()
	}
	return nil
}

func (l *Launcher) scan(ctx context.Context, tp ports.Process) {
	stderr := tp.Stderr()
	if stderr == nil {
		l.logger.Warn(ctx, "tunnel output is not available")
		l.send(EventTunnelFailed, nil)
		return
	}

	announced := false
	err := ScanTunnelOutput(stderr, func(url string) {
		if announced {
			l.logger.Debug(ctx, "ignoring repeated tunnel URL", ports.F("url", url))
			return
		}
		announced = true
		_, _ = fmt.Fprintf(l.out, "This is the URL to access ComfyUI: %s\n", url)
		l.send(EventExposed, url)
	})
	if err != nil && ctx.Err() == nil {
		l.logger.Warn(ctx, "reading tunnel output failed", ports.Err(err))
	}
	if waitErr := tp.Wait(); waitErr != nil && ctx.Err() == nil {
		l.logger.Warn(ctx, "tunnel exited", ports.Err(waitErr))
	}
	if !announced && ctx.Err() == nil {
		l.send(EventTunnelFailed, nil)
	}
}

func (l *Launcher) reset() error {
	lc := &Lifecycle{}
	interp, err := buildMachine(lc)
	if err != nil {
		return fmt.Errorf("failed to build launcher state machine: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.interp != nil {
		l.interp.Stop()
	}
	l.lifecycle = lc
	l.interp = interp
	l.interp.Start()
	return nil
}

// fail moves the machine to StateFailed and returns the error it recorded.
// A machine already past failure keeps its first error.
func (l *Launcher) fail(err error) error {
	l.send(EventFail, err)
	if recorded := l.Err(); recorded != nil {
		return recorded
	}
	return err
}

func (l *Launcher) send(event string, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.interp == nil {
		return
	}
	l.interp.Send(statekit.Event{Type: statekit.EventType(event), Payload: payload})
}
