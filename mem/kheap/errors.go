package kheap

import "errors"

var (
	// ErrOutOfMemory indicates the frame provider could not supply the frames
	// needed to satisfy a request.
	ErrOutOfMemory = errors.New("kheap: out of memory")

	// ErrInvalidPointer indicates a pointer that does not refer to a live
	// allocation: never allocated, already freed, or not a payload start.
	ErrInvalidPointer = errors.New("kheap: invalid pointer")

	// ErrCorruptedHeap indicates a broken heap invariant was detected.
	ErrCorruptedHeap = errors.New("kheap: corrupted heap")

	// ErrZeroSize indicates a request for zero or negative bytes.
	ErrZeroSize = errors.New("kheap: size must be positive")

	// ErrBadProvider indicates a frame provider unusable as a heap backing.
	ErrBadProvider = errors.New("kheap: unusable frame provider")
)
