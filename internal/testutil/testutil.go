// Package testutil provides instrumented streams and stores for tests.
package testutil

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

// ErrInjected is the error returned by injected faults.
var ErrInjected = errors.New("testutil: injected fault")

// MockStream is an in-memory inner stream that counts calls.
type MockStream struct {
	data []byte
	pos  int64

	// MaxRead caps the bytes returned per Read when > 0.
	MaxRead int
	// EOFWithData makes the final Read return its bytes together with io.EOF.
	EOFWithData bool
	// NoSeek makes every Seek fail.
	NoSeek bool
	// SeekSkew is added to the position reported by Seek(io.SeekStart).
	SeekSkew int64
	// ReadErr is returned by the next Read and then cleared.
	ReadErr error

	Reads  int
	Seeks  int
	Closed bool
}

// NewMockStream returns a stream over data.
func NewMockStream(data []byte) *MockStream {
	return &MockStream{data: data}
}

// Read implements io.Reader.
func (m *MockStream) Read(p []byte) (int, error) {
	m.Reads++
	if err := m.ReadErr; err != nil {
		m.ReadErr = nil
		return 0, err
	}
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	if m.MaxRead > 0 && len(p) > m.MaxRead {
		p = p[:m.MaxRead]
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	if m.EOFWithData && m.pos >= int64(len(m.data)) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker.
func (m *MockStream) Seek(offset int64, whence int) (int64, error) {
	m.Seeks++
	if m.NoSeek {
		return 0, fmt.Errorf("%w: seek unsupported", ErrInjected)
	}
	switch whence {
	case io.SeekStart:
		offset += m.SeekSkew
	case io.SeekCurrent:
		offset += m.pos
	case io.SeekEnd:
		offset += int64(len(m.data))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if offset < 0 {
		return 0, fmt.Errorf("seek %d: negative offset", offset)
	}
	m.pos = offset
	return offset, nil
}

// Close implements io.Closer.
func (m *MockStream) Close() error {
	m.Closed = true
	return nil
}

// Pos returns the current position.
func (m *MockStream) Pos() int64 {
	return m.pos
}

// Calls returns the total number of Read and Seek calls.
func (m *MockStream) Calls() int {
	return m.Reads + m.Seeks
}

// SizedStream is a MockStream that also reports its size.
type SizedStream struct {
	*MockStream
	SizeCalls int
	SizeErr   error
}

// NewSizedStream returns a sized stream over data.
func NewSizedStream(data []byte) *SizedStream {
	return &SizedStream{MockStream: NewMockStream(data)}
}

// Size returns the length of the data.
func (s *SizedStream) Size() (int64, error) {
	s.SizeCalls++
	if s.SizeErr != nil {
		return 0, s.SizeErr
	}
	return int64(len(s.data)), nil
}

// FaultyStore wraps a store-like value and fails operations on demand.
type FaultyStore struct {
	Data      []byte
	FailRead  bool
	FailWrite bool
	FailClose bool
}

// ReadAt implements io.ReaderAt.
func (f *FaultyStore) ReadAt(p []byte, off int64) (int, error) {
	if f.FailRead {
		return 0, ErrInjected
	}
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (f *FaultyStore) WriteAt(p []byte, off int64) (int, error) {
	if f.FailWrite {
		return 0, ErrInjected
	}
	if end := off + int64(len(p)); end > int64(len(f.Data)) {
		f.Data = append(f.Data, make([]byte, end-int64(len(f.Data)))...)
	}
	return copy(f.Data[off:], p), nil
}

// Size returns the stored length.
func (f *FaultyStore) Size() int64 {
	return int64(len(f.Data))
}

// Close implements io.Closer.
func (f *FaultyStore) Close() error {
	if f.FailClose {
		return ErrInjected
	}
	return nil
}

// RandomBytes returns n deterministic pseudo-random bytes.
func RandomBytes(n int, seed uint64) []byte {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // test data
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.UintN(256))
	}
	return b
}
