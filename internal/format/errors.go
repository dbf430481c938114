package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")

	// ErrMisaligned indicates a header address that is not 8-byte aligned.
	ErrMisaligned = errors.New("format: misaligned header")
)
