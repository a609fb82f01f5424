// Package validation checks values that end up on external tool command
// lines: package names, model references, download URLs and paths.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput        = errors.New("input cannot be empty")
	ErrPathTraversal     = errors.New("path traversal detected")
	ErrInvalidPath       = errors.New("invalid path")
	ErrCommandInjection  = errors.New("potential command injection detected")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrInvalidPipPackage = errors.New("invalid pip package name")
	ErrInvalidModelRepo  = errors.New("invalid model repository")
	ErrInvalidFileName   = errors.New("invalid file name")
)

var (
	// pipPackageRegex matches a pip requirement with an optional version specifier.
	// Examples: "modelscope", "gguf>=0.10", "pip"
	pipPackageRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*([=<>!~]=?[a-zA-Z0-9._*-]+)?$`)

	// modelRepoRegex matches an owner/name model hub reference.
	// Example: "AI-ModelScope/FLUX.1-dev-gguf"
	modelRepoRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*/[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	// fileNameRegex matches a single path element.
	fileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// shellMetaChars contains shell metacharacters that could enable injection
	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidateURL validates an http or https download URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrEmptyInput
	}

	if len(raw) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}

	if containsShellMeta(raw) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, raw)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be a valid HTTP/HTTPS URL", ErrInvalidURL, raw)
	}

	return nil
}

// ValidatePath rejects empty paths, null bytes and ".." segments.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// ValidatePipPackage validates a pip package name with optional version specifier.
func ValidatePipPackage(pkg string) error {
	if pkg == "" {
		return ErrEmptyInput
	}

	if len(pkg) > 256 {
		return fmt.Errorf("%w: package name too long", ErrInvalidPipPackage)
	}

	if !pipPackageRegex.MatchString(pkg) {
		return fmt.Errorf("%w: %q is not a valid pip package name", ErrInvalidPipPackage, pkg)
	}

	return nil
}

// ValidateModelRepo validates an owner/name model hub reference.
func ValidateModelRepo(repo string) error {
	if repo == "" {
		return ErrEmptyInput
	}

	if !modelRepoRegex.MatchString(repo) || strings.Contains(repo, "..") {
		return fmt.Errorf("%w: %q must look like owner/name", ErrInvalidModelRepo, repo)
	}

	return nil
}

// ValidateFileName validates a single file name such as a model weight file.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}

	if name == "." || name == ".." || !fileNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}

	// URL-encoded traversal
	lower := strings.ToLower(path)
	return strings.Contains(lower, "%2e%2e")
}
