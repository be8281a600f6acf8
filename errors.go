package seekcache

import "errors"

// Sentinel errors for session operations. Errors returned by a Session wrap
// one of these together with the underlying cause, so both can be matched
// with errors.Is.
var (
	// ErrResourceAllocation is returned when the backing store cannot be created.
	ErrResourceAllocation = errors.New("seekcache: backing store allocation failed")

	// ErrIO is returned when the backing store fails a read or write.
	ErrIO = errors.New("seekcache: backing store i/o")

	// ErrInnerStream is returned when the wrapped stream fails to open, read or seek.
	ErrInnerStream = errors.New("seekcache: inner stream")

	// ErrIndexCorruption is returned when the cache detects an internal
	// inconsistency. It indicates a bug, not a recoverable condition.
	ErrIndexCorruption = errors.New("seekcache: index corruption")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("seekcache: session closed")

	// ErrNegativeOffset is returned when a seek resolves to a negative position.
	ErrNegativeOffset = errors.New("seekcache: negative offset")

	// ErrInvalidWhence is returned for an unknown whence value.
	ErrInvalidWhence = errors.New("seekcache: invalid whence")

	// ErrUnsupportedMode is returned when an opener cannot honor the access mode.
	ErrUnsupportedMode = errors.New("seekcache: unsupported access mode")

	// ErrUnsupportedScheme is returned when no opener is registered for a descriptor's scheme.
	ErrUnsupportedScheme = errors.New("seekcache: unsupported scheme")
)
