package seekcache

import (
	"fmt"
	"io"
	"log/slog"
)

// Seek sets the cursor for the next Read.
//
// Targets inside the region already observed are resolved without
// contacting the inner stream. Targets beyond it are recorded locally and
// reconciled by the next Read that misses the cache. io.SeekEnd is resolved
// against the confirmed end of the stream, probing the inner stream for its
// size if the end is not yet known.
//
// With whence set to SeekSize, Seek returns the size of the stream and
// leaves the cursor unchanged.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}

	switch whence {
	case SeekSize:
		return s.probeSize()
	case io.SeekStart:
	case io.SeekCurrent:
		offset += s.cursor
	case io.SeekEnd:
		if !s.endConfirmed {
			if _, err := s.probeSize(); err != nil {
				return 0, err
			}
		}
		if !s.endConfirmed {
			return 0, fmt.Errorf("%w: seek from end of stream with unknown size", ErrInnerStream)
		}
		offset += s.knownEnd
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}

	if offset < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeOffset, offset)
	}
	if offset >= s.knownEnd {
		// Past everything observed so far: keep it as local bookkeeping and
		// let the next read reposition the inner stream.
		s.knownEnd = offset
	}
	s.cursor = offset
	return offset, nil
}

// Size returns the size of the stream. It is shorthand for Seek(0, SeekSize).
func (s *Session) Size() (int64, error) {
	return s.Seek(0, SeekSize)
}

// probeSize asks the inner stream for its size. Streams without a usable
// Sizer are measured by seeking to their end and back.
func (s *Session) probeSize() (int64, error) {
	size := int64(-1)
	if sz, ok := s.inner.(Sizer); ok {
		if n, err := sz.Size(); err == nil {
			size = n
		} else {
			s.logger.Debug("inner size unavailable", slog.Any("error", err))
		}
	}

	if size <= 0 {
		end, err := s.inner.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("%w: probe size: %w", ErrInnerStream, err)
		}
		size = end
		s.restoreInner()
	}

	if size > 0 {
		s.endConfirmed = true
		s.knownEnd = max(s.knownEnd, size)
	}
	return size, nil
}

// restoreInner moves the inner stream back after a size probe. On failure the
// inner position is marked unknown so the next read repositions it.
func (s *Session) restoreInner() {
	if s.innerCursor < 0 {
		return
	}
	pos, err := s.inner.Seek(s.innerCursor, io.SeekStart)
	if err != nil || pos != s.innerCursor {
		s.logger.Error("inner stream failed to seek back after size probe",
			slog.Int64("position", s.innerCursor),
			slog.Any("error", err))
		s.innerCursor = -1
	}
}
