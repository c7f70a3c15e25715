package engine

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// testFS is a minimal OS-backed FileSystem used only by this package's own
// tests, so engine_test doesn't have to import internal/fsops (which itself
// imports engine).
type testFS struct{}

func (testFS) Open(path string) (io.ReadCloser, error)  { return os.Open(path) }
func (testFS) Create(path string) (io.WriteCloser, error) { return os.Create(path) }
func (testFS) Stat(path string) (fs.FileInfo, error)     { return os.Stat(path) }
func (testFS) Lstat(path string) (fs.FileInfo, error)    { return os.Lstat(path) }
func (testFS) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
func (testFS) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
func (testFS) Rename(oldPath, newPath string) error { return os.Rename(oldPath, newPath) }
func (testFS) MkdirAll(path string) error            { return os.MkdirAll(path, 0o755) }
func (testFS) Chtimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}
func (testFS) WalkFiles(root string, fn func(path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Type()&os.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
}

var _ FileSystem = testFS{}
