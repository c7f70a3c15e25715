package engine

import (
	"io"
	"io/fs"
	"time"
)

// FileSystem abstracts the filesystem operations the worker and copy
// pipeline need, on both the source and destination trees. The real
// implementation (internal/fsops.OSFileSystem) talks to the OS; tests can
// substitute a narrower fake.
type FileSystem interface {
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// Create creates (truncating if necessary) path for writing.
	Create(path string) (io.WriteCloser, error)
	// Stat returns file info for path, following no symlinks beyond the final component.
	Stat(path string) (fs.FileInfo, error)
	// Lstat returns file info for path without following a trailing symlink.
	Lstat(path string) (fs.FileInfo, error)
	// Exists reports whether path exists (regardless of type).
	Exists(path string) bool
	// Remove removes a single file. Removing a non-existent file is not an error.
	Remove(path string) error
	// Rename renames oldPath to newPath, replacing newPath if present.
	Rename(oldPath, newPath string) error
	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error
	// Chtimes sets the access and modification time of path. Best-effort.
	Chtimes(path string, atime, mtime time.Time) error
	// WalkFiles calls fn for every regular file under root, not following
	// symlinks. Directories are not reported.
	WalkFiles(root string, fn func(path string, info fs.FileInfo) error) error
}
