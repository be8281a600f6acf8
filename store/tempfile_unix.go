//go:build unix

package store

import "os"

// unlink removes the file's name while keeping the open descriptor usable.
func (t *TempFile) unlink() error {
	if err := os.Remove(t.path); err != nil {
		return err
	}
	t.path = ""
	return nil
}
