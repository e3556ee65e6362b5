package fs

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillyFS implements Filesystem on top of a go-billy filesystem.
type BillyFS struct {
	fs billy.Filesystem
}

// NewOSFS creates a Filesystem rooted at the given OS directory.
func NewOSFS(root string) *BillyFS {
	return &BillyFS{fs: osfs.New(root)}
}

// NewInMemoryFS creates an empty in-memory Filesystem, primarily for tests.
func NewInMemoryFS() *BillyFS {
	return &BillyFS{fs: memfs.New()}
}

// NewBillyFS wraps an existing billy filesystem. This is how git commit trees
// are presented through the Filesystem interface.
func NewBillyFS(filesystem billy.Filesystem) *BillyFS {
	return &BillyFS{fs: filesystem}
}

// Raw returns the underlying billy filesystem for packages that need to hand
// it to go-git directly.
//
//nolint:ireturn // billy.Filesystem is an interface; signature is dictated by upstream.
func (b *BillyFS) Raw() billy.Filesystem {
	return b.fs
}

// Create implements Filesystem.Create.
//
//nolint:ireturn // API returns the fs.File interface by design for flexibility.
func (b *BillyFS) Create(name string) (File, error) {
	f, err := b.fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("billy: create %q: %w", name, err)
	}
	return &billyFile{file: f, fs: b}, nil
}

// Exists implements Filesystem.Exists.
func (b *BillyFS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("billy: stat %q: %w", path, err)
	}
}

// MkdirAll implements Filesystem.MkdirAll.
func (b *BillyFS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("billy: mkdirall %q: %w", path, err)
	}
	return nil
}

// Open implements Filesystem.Open.
//
//nolint:ireturn // API returns the fs.File interface by design for flexibility.
func (b *BillyFS) Open(name string) (File, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("billy: open %q: %w", name, err)
	}
	return &billyFile{file: f, fs: b}, nil
}

// ReadDir implements Filesystem.ReadDir.
func (b *BillyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("billy: readdir %q: %w", dirname, err)
	}
	return list, nil
}

// ReadFile implements Filesystem.ReadFile.
func (b *BillyFS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return bts, nil
}

// Remove implements Filesystem.Remove.
func (b *BillyFS) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return fmt.Errorf("billy: remove %q: %w", name, err)
	}
	return nil
}

// Stat implements Filesystem.Stat.
func (b *BillyFS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("billy: stat %q: %w", name, err)
	}
	return info, nil
}

// WriteFile implements Filesystem.WriteFile.
func (b *BillyFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, path, data, perm); err != nil {
		return fmt.Errorf("billy: writefile %q: %w", path, err)
	}
	return nil
}

// billyFile adapts a billy.File to the File interface.
type billyFile struct {
	file billy.File
	fs   *BillyFS
}

func (f *billyFile) Close() error { return f.file.Close() }

func (f *billyFile) Name() string { return f.file.Name() }

func (f *billyFile) Read(p []byte) (int, error) { return f.file.Read(p) }

func (f *billyFile) ReadAt(p []byte, off int64) (int, error) { return f.file.ReadAt(p, off) }

func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

func (f *billyFile) Write(p []byte) (int, error) { return f.file.Write(p) }

// Stat stats the file through the filesystem since billy files expose no Stat.
func (f *billyFile) Stat() (os.FileInfo, error) {
	return f.fs.Stat(f.file.Name())
}
