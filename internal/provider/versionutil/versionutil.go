// Package versionutil compares tool versions reported by external commands.
package versionutil

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Canonical turns a bare version such as "3.11" or "3.11.4" into the
// "v3.11.4" form understood by semver.
func Canonical(version string) (string, error) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version %q", version)
	}
	return semver.Canonical(v), nil
}

// AtLeast reports whether version is greater than or equal to minimum.
func AtLeast(version, minimum string) (bool, error) {
	v, err := Canonical(version)
	if err != nil {
		return false, err
	}
	m, err := Canonical(minimum)
	if err != nil {
		return false, err
	}
	return semver.Compare(v, m) >= 0, nil
}
