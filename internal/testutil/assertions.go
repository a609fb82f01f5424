package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileExists asserts that a regular file exists at path.
func AssertFileExists(t testing.TB, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		assert.Fail(t, "file does not exist", "expected file to exist: %s", path)
		return
	}
	require.NoError(t, err)
	assert.False(t, info.IsDir(), "expected file but got directory: %s", path)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected file to not exist: %s", path)
}

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	assert.Contains(t, string(content), expected)
}

// AssertMarkers asserts that a zero-byte completion marker exists in dir for
// every name.
func AssertMarkers(t testing.TB, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		path := filepath.Join(dir, name+".done")
		info, err := os.Stat(path)
		if !assert.NoError(t, err, "missing marker for %s", name) {
			continue
		}
		assert.Zero(t, info.Size(), "marker for %s should be empty", name)
	}
}

// AssertNoMarkers asserts that dir holds no completion markers.
func AssertNoMarkers(t testing.TB, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "*.done"))
	require.NoError(t, err)
	assert.Empty(t, matches, "expected no markers in %s", dir)
}
