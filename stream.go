package seekcache

import (
	"context"
	"io"
)

// SeekSize is a whence value that asks for the total size of the stream.
// Seek returns the size and leaves the cursor where it was.
const SeekSize = 0x10000

// Stream is the inner byte stream wrapped by a Session.
//
// Seek must report the position it actually reached. Streams that cannot
// seek return an error from Seek; the session then serves backward seeks
// from the cache only.
type Stream interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Sizer is implemented by streams that know their total size.
// A size <= 0 means unknown.
type Sizer interface {
	Size() (int64, error)
}

// AccessMode is the mode an inner stream is opened with.
type AccessMode int

// Access modes.
const (
	ReadOnly AccessMode = iota
	WriteOnly
	ReadWrite
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Opener opens inner streams for a descriptor scheme.
//
// ctx is the interrupt token of the session: streams that perform network
// I/O should bind their requests to it so callers can cancel slow transfers.
type Opener interface {
	Open(ctx context.Context, descriptor string, mode AccessMode) (Stream, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, descriptor string, mode AccessMode) (Stream, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, descriptor string, mode AccessMode) (Stream, error) {
	return f(ctx, descriptor, mode)
}
