package oci

import (
	"fmt"
	"io"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Blob is a stream over one registry blob.
type Blob struct {
	desc   ocispec.Descriptor
	rc     io.ReadCloser
	seeker io.Seeker // nil when the registry lacks range support
	pos    int64
}

func newBlob(desc ocispec.Descriptor, rc io.ReadCloser) *Blob {
	b := &Blob{desc: desc, rc: rc}
	if s, ok := rc.(io.Seeker); ok {
		b.seeker = s
	}
	return b
}

// Descriptor returns the resolved descriptor of the blob.
func (b *Blob) Descriptor() ocispec.Descriptor {
	return b.desc
}

// Size returns the blob size from its descriptor.
func (b *Blob) Size() (int64, error) {
	return b.desc.Size, nil
}

// Seekable reports whether the registry serves range requests for the blob.
func (b *Blob) Seekable() bool {
	return b.seeker != nil
}

// Read reads from the current position.
func (b *Blob) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	b.pos += int64(n)
	return n, err
}

// Seek moves the stream. Without range support only seeks that resolve to
// the current position succeed.
func (b *Blob) Seek(offset int64, whence int) (int64, error) {
	if b.seeker != nil {
		pos, err := b.seeker.Seek(offset, whence)
		if err != nil {
			return 0, err
		}
		b.pos = pos
		return pos, nil
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += b.pos
	case io.SeekEnd:
		offset += b.desc.Size
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if offset != b.pos {
		return 0, fmt.Errorf("%w: seek to %d from %d", ErrNotSeekable, offset, b.pos)
	}
	return b.pos, nil
}

// Close releases the underlying response.
func (b *Blob) Close() error {
	return b.rc.Close()
}
