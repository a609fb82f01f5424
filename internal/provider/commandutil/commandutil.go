// Package commandutil interprets errors returned by external commands.
package commandutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// MissingToolError explains a failure to start a required tool.
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s is not installed or not on PATH: %v", e.Tool, e.Err)
}

func (e *MissingToolError) Unwrap() error {
	return e.Err
}

// DescribeMissing wraps err in a MissingToolError when it reports that tool
// could not be found, and returns it unchanged otherwise.
func DescribeMissing(tool string, err error) error {
	if IsCommandNotFound(err) {
		return &MissingToolError{Tool: tool, Err: err}
	}
	return err
}
