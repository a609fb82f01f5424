package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// StepID names a step. It is also the stem of the step's completion marker
// (<id>.done in the state directory), so only characters that are safe in
// a file name on every platform are accepted. StepIDs are comparable with ==.
type StepID struct {
	value string
}

var (
	ErrEmptyStepID   = errors.New("step ID is empty")
	ErrInvalidStepID = errors.New("step ID must start with a letter or digit and contain only letters, digits, '.', '-' and '_'")
)

// NewStepID validates value after trimming surrounding whitespace.
func NewStepID(value string) (StepID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return StepID{}, ErrEmptyStepID
	}
	for i, r := range value {
		if isAlnum(r) || (i > 0 && (r == '.' || r == '-' || r == '_')) {
			continue
		}
		return StepID{}, fmt.Errorf("%w: %q", ErrInvalidStepID, value)
	}
	return StepID{value: value}, nil
}

// MustNewStepID is NewStepID for fixed names and ids the config validator
// has already checked.
func MustNewStepID(value string) StepID {
	id, err := NewStepID(value)
	if err != nil {
		panic(err)
	}
	return id
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (id StepID) String() string { return id.value }

// IsZero reports an unset ID.
func (id StepID) IsZero() bool { return id.value == "" }
