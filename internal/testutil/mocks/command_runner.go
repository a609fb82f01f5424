// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// RunHook is called for every Run and Capture invocation that has no
// registered error. It can simulate side effects such as creating files.
type RunHook func(inv ports.Invocation) error

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Unregistered commands succeed with empty output unless Strict is set.
type CommandRunner struct {
	mu        sync.RWMutex
	results   map[string]ports.CommandResult
	errors    map[string]error
	processes map[string]*Process
	hook      RunHook
	strict    bool
	calls     []ports.Invocation
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:   make(map[string]ports.CommandResult),
		errors:    make(map[string]error),
		processes: make(map[string]*Process),
	}
}

// Strict makes unregistered commands fail.
func (m *CommandRunner) Strict() *CommandRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strict = true
	return m
}

// OnRun installs a hook called for successful Run and Capture invocations.
func (m *CommandRunner) OnRun(hook RunHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// AddProcess registers the process returned by Start for a command.
func (m *CommandRunner) AddProcess(command string, args []string, proc *Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[buildKey(command, args)] = proc
}

// Run executes a mock command.
func (m *CommandRunner) Run(ctx context.Context, inv ports.Invocation) error {
	result, err := m.Capture(ctx, inv)
	if err != nil {
		return err
	}
	if !result.Success() {
		return &ports.CommandError{
			Description: inv.Description,
			CommandLine: inv.String(),
			ExitCode:    result.ExitCode,
			Err:         fmt.Errorf("exit status %d", result.ExitCode),
		}
	}
	return nil
}

// Capture executes a mock command and returns its registered result.
func (m *CommandRunner) Capture(_ context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	m.record(inv)

	m.mu.RLock()
	key := buildKey(inv.Command, inv.Args)
	err, hasErr := m.errors[key]
	result, hasResult := m.results[key]
	hook, strict := m.hook, m.strict
	m.mu.RUnlock()

	if hasErr {
		return ports.CommandResult{}, err
	}
	if !hasResult && strict {
		return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s", inv)
	}
	if hook != nil {
		if err := hook(inv); err != nil {
			return ports.CommandResult{}, err
		}
	}
	return result, nil
}

// Start returns the registered process, or a new process that runs until
// killed.
func (m *CommandRunner) Start(_ context.Context, inv ports.Invocation, _ ports.StartOptions) (ports.Process, error) {
	m.record(inv)

	m.mu.RLock()
	defer m.mu.RUnlock()

	key := buildKey(inv.Command, inv.Args)
	if err, ok := m.errors[key]; ok {
		return nil, err
	}
	if proc, ok := m.processes[key]; ok {
		return proc, nil
	}
	if m.strict {
		return nil, fmt.Errorf("no mock process for command: %s", inv)
	}
	return NewProcess(""), nil
}

// Calls returns all recorded invocations.
func (m *CommandRunner) Calls() []ports.Invocation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.Invocation, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallLines returns the recorded invocations as command lines.
func (m *CommandRunner) CallLines() []string {
	calls := m.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// CallCount returns how many recorded command lines start with prefix.
func (m *CommandRunner) CallCount(prefix string) int {
	n := 0
	for _, line := range m.CallLines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.processes = make(map[string]*Process)
	m.calls = nil
	m.hook = nil
}

func (m *CommandRunner) record(inv ports.Invocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.Args = append([]string(nil), inv.Args...)
	m.calls = append(m.calls, inv)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
