package kheap

import (
	"github.com/joshuapare/kheapkit/mem"
	"github.com/joshuapare/kheapkit/mem/verify"
)

// Ptr is a caller-domain payload address. The zero Ptr is the null pointer.
type Ptr uint64

// BlockInfo describes one free block. It is a type alias for the canonical
// definition in mem/verify so snapshots can be checked directly.
type BlockInfo = verify.Block

// FrameProvider is the lower-level allocator the heap grows from.
//
// Implementations:
//   - frame.Allocator: bitmap allocator over an mmap'd arena
type FrameProvider interface {
	// RequestFrames returns the address of count contiguous, frame-aligned
	// frames, or an error under memory pressure.
	RequestFrames(count int) (mem.Addr, error)

	// ReleaseFrames returns count contiguous frames starting at addr.
	ReleaseFrames(addr mem.Addr, count int) error

	// FrameSize returns the frame granularity in bytes.
	FrameSize() int
}

// Allocator is the caller-facing heap interface.
//
// Implementations:
//   - Heap: the kernel heap
//   - Checked: leak-tracking wrapper around another Allocator
type Allocator interface {
	// Alloc returns a pointer to at least size bytes and a view of the
	// first size of them.
	Alloc(size int) (Ptr, []byte, error)

	// Calloc is Alloc followed by zeroing the first size bytes.
	Calloc(size int) (Ptr, []byte, error)

	// Free releases a pointer obtained from this allocator.
	Free(p Ptr) error

	// Realloc moves an allocation to a block of size bytes, preserving
	// min(old, size) bytes of content.
	Realloc(p Ptr, size int) (Ptr, []byte, error)
}
