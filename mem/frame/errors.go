package frame

import "errors"

var (
	// ErrExhausted indicates no run of free frames is long enough.
	ErrExhausted = errors.New("frame: no contiguous run of free frames")

	// ErrBadAddr indicates an address that is not frame-aligned or lies outside the arena.
	ErrBadAddr = errors.New("frame: bad frame address")

	// ErrBadCount indicates a non-positive frame count.
	ErrBadCount = errors.New("frame: frame count must be positive")

	// ErrDoubleRelease indicates a release of a frame that is not allocated.
	ErrDoubleRelease = errors.New("frame: frame not allocated")

	// ErrBadConfig indicates an unusable configuration.
	ErrBadConfig = errors.New("frame: bad config")
)
