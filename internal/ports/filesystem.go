package ports

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem is the host filesystem as the steps, the ledger-adjacent
// adapters and the retry runner see it.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path. The parent directory must exist.
	WriteFile(path string, data []byte, perm os.FileMode) error
	// Exists reports presence without following a final symlink.
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	// Remove deletes a file or empty directory. A missing path is not an error.
	Remove(path string) error
	// Rename moves oldPath to newPath, replacing newPath if it exists.
	Rename(oldPath, newPath string) error
}

// ExpandPath expands environment variables and a leading ~ in a configured
// path, so workspace: $HOME/ComfyUI and workspace: ~/ComfyUI agree. If the
// home directory is unknown the ~ is left in place.
func ExpandPath(p string) string {
	p = os.ExpandEnv(p)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ResolveUnder expands p and joins it onto root when relative. Absolute
// results are cleaned.
func ResolveUnder(root, p string) string {
	p = ExpandPath(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
