// Package retry runs download-class operations with a bounded number of
// attempts, treating an existing target file as success.
package retry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Defaults.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Description string
	Attempts    int
	Err         error
}

// Error returns the formatted error message.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Description, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Operation is one attempt.
type Operation func(ctx context.Context) error

// Runner retries operations up to a fixed number of attempts.
type Runner struct {
	attempts int
	delay    time.Duration
	exists   func(path string) bool
	logger   ports.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = d
	}
}

// WithFileSystem checks artifacts through fs instead of the host filesystem.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(r *Runner) {
		r.exists = fs.Exists
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(logger ports.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner making at most attempts attempts. Values below
// one are raised to one.
func NewRunner(attempts int, opts ...Option) *Runner {
	if attempts < 1 {
		attempts = 1
	}
	r := &Runner{
		attempts: attempts,
		delay:    DefaultDelay,
		exists:   fileExists,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts returns the attempt bound.
func (r *Runner) Attempts() int {
	return r.attempts
}

// Do runs op until it succeeds or the attempt bound is reached. Before every
// attempt, an existing artifact ends the loop successfully without calling
// op. An empty artifact disables that check. Exhaustion yields an
// *ExhaustedError; cancellation yields the context's error.
func (r *Runner) Do(ctx context.Context, description, artifact string, op Operation) error {
	return r.DoWithAttempts(ctx, r.attempts, description, artifact, op)
}

// DoWithAttempts is Do with a per-call attempt bound.
func (r *Runner) DoWithAttempts(ctx context.Context, attempts int, description, artifact string, op Operation) error {
	if attempts < 1 {
		attempts = 1
	}

	made := 0
	attempt := func() error {
		if artifact != "" && r.exists(artifact) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		made++
		return op(ctx)
	}

	notify := func(err error, next time.Duration) {
		if r.logger == nil {
			return
		}
		r.logger.Warn(ctx, "attempt failed, retrying",
			ports.F("step", description),
			ports.F("attempt", made),
			ports.F("of", attempts),
			ports.F("retry_in", next.String()),
			ports.Err(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.delay), uint64(attempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(attempt, policy, notify)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return &ExhaustedError{Description: description, Attempts: made, Err: err}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
