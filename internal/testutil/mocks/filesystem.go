package mocks

import (
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// FileSystem is an in-memory ports.FileSystem safe for concurrent use.
// Creating a file or directory also creates its ancestors, so a test can
// AddFile("/srv/ComfyUI/main.py") and see /srv/ComfyUI as a directory.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// NewFileSystem returns an empty FileSystem.
func NewFileSystem() *FileSystem {
	fs := &FileSystem{}
	fs.clear()
	return fs
}

func (fs *FileSystem) clear() {
	fs.files = map[string][]byte{}
	fs.dirs = map[string]struct{}{}
}

// mkdirs records dir and every ancestor. Caller holds the lock.
func (fs *FileSystem) mkdirs(dir string) {
	for dir = path.Clean(dir); ; dir = path.Dir(dir) {
		fs.dirs[dir] = struct{}{}
		if parent := path.Dir(dir); parent == dir {
			return
		}
	}
}

// AddFile seeds a file.
func (fs *FileSystem) AddFile(name, content string) {
	_ = fs.WriteFile(name, []byte(content), 0o644)
}

// AddDir seeds a directory.
func (fs *FileSystem) AddDir(name string) {
	_ = fs.MkdirAll(name, 0o755)
}

// Files lists every file path in sorted order.
func (fs *FileSystem) Files() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	names := make([]string, 0, len(fs.files))
	for name := range fs.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fs *FileSystem) ReadFile(name string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	data, ok := fs.files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (fs *FileSystem) WriteFile(name string, data []byte, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	name = path.Clean(name)
	if _, isDir := fs.dirs[name]; isDir {
		return fmt.Errorf("write %s: is a directory", name)
	}
	fs.mkdirs(path.Dir(name))
	fs.files[name] = append([]byte(nil), data...)
	return nil
}

func (fs *FileSystem) Exists(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	name = path.Clean(name)
	_, isFile := fs.files[name]
	_, isDir := fs.dirs[name]
	return isFile || isDir
}

func (fs *FileSystem) IsDir(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.dirs[path.Clean(name)]
	return ok
}

func (fs *FileSystem) MkdirAll(name string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirs(name)
	return nil
}

// Remove deletes a file or directory entry. Like the host adapter, a
// missing path is not an error.
func (fs *FileSystem) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	name = path.Clean(name)
	delete(fs.files, name)
	delete(fs.dirs, name)
	return nil
}

// Rename moves a file, replacing newPath.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	oldPath, newPath = path.Clean(oldPath), path.Clean(newPath)
	data, ok := fs.files[oldPath]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldPath, os.ErrNotExist)
	}
	delete(fs.files, oldPath)
	fs.mkdirs(path.Dir(newPath))
	fs.files[newPath] = data
	return nil
}

// Reset removes everything.
func (fs *FileSystem) Reset() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.clear()
}

var _ ports.FileSystem = (*FileSystem)(nil)
