//go:build !unix

package store

// unlink is a no-op where open files cannot be removed; Close removes the file.
func (t *TempFile) unlink() error {
	return nil
}
