package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *UserError
		expected string
	}{
		{
			name:     "simple message",
			err:      &UserError{Code: ErrCodeConfigNotFound, Message: "config file not found"},
			expected: "config file not found",
		},
		{
			name:     "message with context",
			err:      &UserError{Code: ErrCodeConfigNotFound, Message: "config file not found", Context: "comfyboot.yaml"},
			expected: "config file not found (at comfyboot.yaml)",
		},
		{
			name: "suggestion is not part of Error",
			err: &UserError{
				Code:       ErrCodeConfigNotFound,
				Message:    "config file not found",
				Context:    "comfyboot.yaml",
				Suggestion: "omit --config",
			},
			expected: "config file not found (at comfyboot.yaml)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUserError_Format(t *testing.T) {
	t.Parallel()

	err := &UserError{
		Code:       ErrCodeValidationFailed,
		Message:    "retries: must be at least 1, got 0",
		Context:    "retries",
		Suggestion: "Set retries to 3.",
	}

	formatted := err.Format()
	assert.Contains(t, formatted, "[VALIDATION_FAILED]")
	assert.Contains(t, formatted, "Location: retries")
	assert.Contains(t, formatted, "Suggestion: Set retries to 3.")
}

func TestUserError_UnwrapAndIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	err := NewConfigReadError("comfyboot.yaml", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("loading: %w", err), &UserError{Code: ErrCodeConfigRead})
	assert.NotErrorIs(t, err, &UserError{Code: ErrCodeConfigParse})
}

func TestUserError_WithSuggestion(t *testing.T) {
	t.Parallel()

	original := NewValidationFailedError("launch.port", "out of range")
	updated := original.WithSuggestion("Use 8188.")

	assert.Empty(t, original.Suggestion)
	assert.Equal(t, "Use 8188.", updated.Suggestion)
	assert.Equal(t, original.Code, updated.Code)
}

func TestErrorList(t *testing.T) {
	t.Parallel()

	list := &ErrorList{}
	require.NoError(t, list.AsError())
	assert.Empty(t, list.Error())
	assert.Empty(t, list.Format())

	list.Add(nil)
	assert.Equal(t, 0, list.Len())

	list.AddValidation("retries", "must be at least 1", "")
	assert.Equal(t, "retries: must be at least 1 (at retries)", list.Error())

	list.AddValidation("launch.port", "out of range", "Use 8188.")
	assert.Equal(t, 2, list.Len())
	assert.Contains(t, list.Error(), "2 errors occurred")
	assert.Contains(t, list.Format(), "--- Error 2 ---")

	errs := list.Errors()
	errs[0] = nil
	assert.NotNil(t, list.Errors()[0], "Errors must return a copy")

	require.Error(t, list.AsError())
}

func TestIsUserError(t *testing.T) {
	t.Parallel()

	list := &ErrorList{}
	list.AddValidation("region", "unknown", "")

	assert.True(t, IsUserError(NewConfigNotFoundError("x.yaml"), ErrCodeConfigNotFound))
	assert.True(t, IsUserError(fmt.Errorf("wrapped: %w", NewConfigNotFoundError("x.yaml")), ErrCodeConfigNotFound))
	assert.True(t, IsUserError(list, ErrCodeValidationFailed))
	assert.False(t, IsUserError(errors.New("plain"), ErrCodeConfigNotFound))
	assert.False(t, IsUserError(nil, ErrCodeConfigNotFound))
}

func TestGetUserError(t *testing.T) {
	t.Parallel()

	ue := NewConfigNotFoundError("x.yaml")
	assert.Same(t, ue, GetUserError(fmt.Errorf("wrapped: %w", ue)))
	assert.Nil(t, GetUserError(errors.New("plain")))
}

func TestNewConfigParseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		cause   string
		message string
	}{
		{"yaml unknown key", FormatYAML, "yaml: unmarshal errors:\n  line 2: field colour not found in type config.rawDocument", "unknown configuration key"},
		{"toml unknown key", FormatTOML, "strict mode: fields in the document are missing in the target struct", "unknown configuration key"},
		{"list instead of map", FormatYAML, "yaml: unmarshal errors:\n  line 3: cannot unmarshal !!seq into map[string]config.rawModel", "expected an object but found a list"},
		{"generic toml", FormatTOML, "toml: expected character =", "invalid TOML syntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewConfigParseError("comfyboot.cfg", tt.format, errors.New(tt.cause))
			assert.Equal(t, ErrCodeConfigParse, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, "comfyboot.cfg", err.Context)
			assert.NotEmpty(t, err.Suggestion)
		})
	}
}
