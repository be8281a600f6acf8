package store

import (
	"errors"
	"fmt"
	"os"
)

const tempPattern = "seekcache-*"

// TempFile is a Store backed by an anonymous temporary file.
//
// On unix the file is unlinked as soon as it is created, so the bytes are
// reclaimed by the OS even if the process dies. Elsewhere the file is
// removed on Close.
type TempFile struct {
	file *os.File
	path string // non-empty while the file still has a name to remove
	size int64
}

// NewTempFile creates an anonymous temporary file in dir.
// An empty dir uses os.TempDir.
func NewTempFile(dir string) (*TempFile, error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp store: %w", err)
	}
	t := &TempFile{file: f, path: f.Name()}
	if err := t.unlink(); err != nil {
		_ = f.Close()
		_ = os.Remove(t.path)
		return nil, fmt.Errorf("unlink temp store: %w", err)
	}
	return t, nil
}

// ReadAt implements io.ReaderAt.
func (t *TempFile) ReadAt(p []byte, off int64) (int, error) {
	if t.file == nil {
		return 0, ErrClosed
	}
	return t.file.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (t *TempFile) WriteAt(p []byte, off int64) (int, error) {
	if t.file == nil {
		return 0, ErrClosed
	}
	n, err := t.file.WriteAt(p, off)
	if end := off + int64(n); end > t.size {
		t.size = end
	}
	return n, err
}

// Size returns the current length of the file.
func (t *TempFile) Size() int64 {
	return t.size
}

// Close closes the file and removes it if it still has a name.
func (t *TempFile) Close() error {
	if t.file == nil {
		return ErrClosed
	}
	err := t.file.Close()
	t.file = nil
	if t.path != "" {
		if rmErr := os.Remove(t.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		t.path = ""
	}
	return err
}
