package seekcache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/meigma/seekcache/internal/index"
	"github.com/meigma/seekcache/store"
)

// maxExtent caps the bytes requested from the inner stream per read so a
// single read always fits one extent.
const maxExtent = math.MaxInt32

// Session is a cached view of an inner stream.
//
// Session implements io.ReadSeekCloser. Reads are served from the backing
// store when the cursor falls inside a cached extent and from the inner
// stream otherwise; every byte read from the inner stream is appended to
// the store and indexed by its logical offset.
//
// A Session is not safe for concurrent use.
type Session struct {
	inner   Stream
	store   store.Store
	index   *index.Index
	logger  *slog.Logger
	metrics *metrics

	cursor       int64 // caller-visible position
	innerCursor  int64 // last known inner position, -1 if unknown
	knownEnd     int64 // highest offset known to exist
	endConfirmed bool  // knownEnd is the true end of the stream

	hits, misses          int64
	bytesHit, bytesMissed int64

	closed bool
}

// Interface compliance.
var _ io.ReadSeekCloser = (*Session)(nil)

// New returns a session caching reads from inner in st.
//
// The session takes ownership of both and closes them on Close. The inner
// stream is assumed to be positioned at offset 0.
func New(inner Stream, st store.Store, opts ...Option) *Session {
	cfg := newConfig(opts)
	return newSession(inner, st, cfg)
}

func newSession(inner Stream, st store.Store, cfg *config) *Session {
	return &Session{
		inner:   inner,
		store:   st,
		index:   index.New(),
		logger:  cfg.logger,
		metrics: newMetrics(cfg.meterProvider, cfg.logger),
	}
}

// Read reads up to len(p) bytes at the cursor.
//
// A read that starts inside a cached extent returns at most the bytes left
// in that extent, even when more are cached in a following extent. At the
// end of the stream Read returns 0, io.EOF.
func (s *Session) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if e, ok := s.index.Floor(s.cursor); ok && e.Contains(s.cursor) {
		return s.readCached(p, e)
	}
	return s.readInner(p)
}

func (s *Session) readCached(p []byte, e index.Extent) (int, error) {
	inBlock := s.cursor - e.LogicalOffset
	want := min(int64(len(p)), int64(e.Length)-inBlock)

	n, err := s.store.ReadAt(p[:want], e.PhysicalOffset+inBlock)
	if int64(n) != want {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("%w: read extent %s: %w", ErrIO, e, err)
	}

	s.cursor += want
	s.hits++
	s.bytesHit += want
	s.metrics.hit(want)
	return int(want), nil
}

func (s *Session) readInner(p []byte) (int, error) {
	if s.innerCursor != s.cursor {
		if err := s.repositionInner(); err != nil {
			return 0, err
		}
	}

	want := min(int64(len(p)), maxExtent)
	if next, ok := s.index.Next(s.cursor); ok {
		want = min(want, next.LogicalOffset-s.cursor)
	}

	n, err := s.inner.Read(p[:want])
	if n < 0 || int64(n) > want {
		return 0, fmt.Errorf("%w: read returned %d bytes for a %d byte buffer", ErrInnerStream, n, want)
	}
	if n == 0 {
		switch {
		case errors.Is(err, io.EOF):
			return 0, s.confirmEnd()
		case err != nil:
			return 0, fmt.Errorf("%w: read at %d: %w", ErrInnerStream, s.cursor, err)
		default:
			return 0, nil
		}
	}
	s.innerCursor += int64(n)

	if recErr := s.record(p[:n]); recErr != nil {
		return 0, recErr
	}

	s.cursor += int64(n)
	s.knownEnd = max(s.knownEnd, s.cursor)
	s.misses++
	s.bytesMissed += int64(n)
	s.metrics.miss(int64(n))

	if err != nil {
		if errors.Is(err, io.EOF) {
			s.endConfirmed = true
			s.logger.Debug("end of stream confirmed", slog.Int64("end", s.knownEnd))
			return n, nil
		}
		return n, fmt.Errorf("%w: read at %d: %w", ErrInnerStream, s.cursor-int64(n), err)
	}
	return n, nil
}

// repositionInner moves the inner stream to the cursor. It is the only
// place the inner position is corrected after a seek.
func (s *Session) repositionInner() error {
	s.logger.Debug("repositioning inner stream",
		slog.Int64("from", s.innerCursor),
		slog.Int64("to", s.cursor))

	pos, err := s.inner.Seek(s.cursor, io.SeekStart)
	if err != nil {
		s.innerCursor = -1
		return fmt.Errorf("%w: seek to %d: %w", ErrInnerStream, s.cursor, err)
	}
	s.innerCursor = pos
	if pos != s.cursor {
		return fmt.Errorf("%w: seek to %d reached %d", ErrInnerStream, s.cursor, pos)
	}
	return nil
}

// confirmEnd handles a zero-length read at the cursor.
func (s *Session) confirmEnd() error {
	if s.knownEnd < s.cursor {
		return fmt.Errorf("%w: end of stream at %d before known end %d", ErrIndexCorruption, s.cursor, s.knownEnd)
	}
	if !s.endConfirmed {
		s.logger.Debug("end of stream confirmed", slog.Int64("end", s.knownEnd))
	}
	s.endConfirmed = true
	return io.EOF
}

// record appends p to the store and indexes it at the cursor.
func (s *Session) record(p []byte) error {
	pos, err := store.Append(s.store, p)
	if err != nil {
		return fmt.Errorf("%w: append %d bytes: %w", ErrIO, len(p), err)
	}
	e := index.Extent{
		LogicalOffset:  s.cursor,
		PhysicalOffset: pos,
		Length:         int32(len(p)), //nolint:gosec // len(p) <= maxExtent
	}
	if err := s.index.Insert(e); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexCorruption, err)
	}
	return nil
}

// Close reports the session statistics and releases the backing store, the
// inner stream and the index.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	st := s.Stats()
	s.logger.Info("cache statistics",
		slog.Int64("hits", st.Hits),
		slog.Int64("misses", st.Misses),
		slog.Int64("bytes_hit", st.BytesHit),
		slog.Int64("bytes_missed", st.BytesMissed),
		slog.Int("extents", st.Extents))

	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close store: %w", ErrIO, err))
	}
	if err := s.inner.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close: %w", ErrInnerStream, err))
	}
	s.index.Clear()
	return errors.Join(errs...)
}
