// Package store provides backing stores for cached stream bytes.
//
// A Store is an anonymous, growable byte container. Bytes are appended at
// Size and read back with positioned reads; nothing in a Store outlives the
// process.
package store

import (
	"errors"
	"io"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store is a randomly addressable byte container.
//
// Implementations need not be safe for concurrent use.
type Store interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Size returns the current end of the store.
	Size() int64
}

// Append writes p at the end of s and returns the offset it was written at.
func Append(s Store, p []byte) (int64, error) {
	pos := s.Size()
	n, err := s.WriteAt(p, pos)
	if err != nil {
		return pos, err
	}
	if n != len(p) {
		return pos, io.ErrShortWrite
	}
	return pos, nil
}
