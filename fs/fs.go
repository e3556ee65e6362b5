// Package fs provides the filesystem abstraction used across the checker.
// Every module that touches files goes through Filesystem, so the same code
// serves OS directories, in-memory test trees, and snapshots of git commits.
package fs

import (
	"io"
	"os"
)

// File represents an open file handle supporting basic I/O operations.
// Implementations should behave consistently with the standard library.
type File interface {
	io.Closer
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Writer

	Name() string
	Stat() (os.FileInfo, error)
}

// Filesystem is the read/write filesystem surface required by the checker.
type Filesystem interface {
	// Create creates or truncates the named file.
	Create(name string) (File, error)

	// Exists reports whether the named file or directory exists.
	Exists(path string) (bool, error)

	// MkdirAll creates the named directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Open opens the named file for reading.
	Open(name string) (File, error)

	// ReadDir reads the named directory and returns its entries.
	ReadDir(dirname string) ([]os.FileInfo, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(path string) ([]byte, error)

	// Remove removes the named file or empty directory.
	Remove(name string) error

	// Stat returns file info for the named file.
	Stat(name string) (os.FileInfo, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(path string, data []byte, perm os.FileMode) error
}
