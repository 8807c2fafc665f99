package kernel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileSwapBackend is a reference SwapBackend that really does read and
// write a per-process backing file on disk. This is the one component in
// this module that talks to a real filesystem, so it is also the one
// place wrapping errors with github.com/pkg/errors earns its keep.
type FileSwapBackend struct {
	dir  string
	pid  int
	file *os.File
}

// NewFileSwapBackend returns a backend for pid rooted at dir. The backing
// file itself is not created until Create is called.
func NewFileSwapBackend(dir string, pid int) *FileSwapBackend {
	return &FileSwapBackend{dir: dir, pid: pid}
}

func (b *FileSwapBackend) path() string {
	return filepath.Join(b.dir, fmt.Sprintf("swap.%d", b.pid))
}

// Create opens (creating if necessary) the backing file for this process.
func (b *FileSwapBackend) Create() error {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return errors.Wrapf(err, "creating swap directory %q for pid %d", b.dir, b.pid)
	}
	f, err := os.OpenFile(b.path(), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return errors.Wrapf(err, "creating swap file for pid %d", b.pid)
	}
	b.file = f
	return nil
}

// Destroy closes and removes the backing file.
func (b *FileSwapBackend) Destroy() error {
	if b.file == nil {
		return nil
	}
	if err := b.file.Close(); err != nil {
		return errors.Wrapf(err, "closing swap file for pid %d", b.pid)
	}
	if err := os.Remove(b.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing swap file for pid %d", b.pid)
	}
	b.file = nil
	return nil
}

// WriteAt writes buf at offset in the backing file.
func (b *FileSwapBackend) WriteAt(offset int64, buf []byte) error {
	if b.file == nil {
		return errors.Errorf("swap file for pid %d not created", b.pid)
	}
	if _, err := b.file.WriteAt(buf, offset); err != nil {
		return errors.Wrapf(err, "writing swap slot at offset %d for pid %d", offset, b.pid)
	}
	return nil
}

// ReadAt reads len(buf) bytes at offset from the backing file.
func (b *FileSwapBackend) ReadAt(offset int64, buf []byte) error {
	if b.file == nil {
		return errors.Errorf("swap file for pid %d not created", b.pid)
	}
	if _, err := b.file.ReadAt(buf, offset); err != nil {
		return errors.Wrapf(err, "reading swap slot at offset %d for pid %d", offset, b.pid)
	}
	return nil
}
