// Package kheap implements the kernel heap: a single address-ordered free
// list with first-fit allocation, in-place splitting and adjacency
// coalescing, growing from a frame provider when it runs dry.
//
// # Overview
//
// Every block in the heap is a 24-byte header followed by its payload. Free
// blocks are threaded into a circular doubly linked list through the link
// words of their headers; a sentinel that lives outside frame memory closes
// the circle. The list is kept in strictly increasing address order, which is
// what lets coalescing look only at list neighbours.
//
//	+--------+--------+--------+------------------+
//	| size   | next   | prev   | payload ...      |
//	+--------+--------+--------+------------------+
//	 0x00     0x08     0x10     0x18
//
// While a block is allocated its link words carry an allocation tag bound to
// the header address. Free checks the tag before touching the list, so stray
// pointers and double frees come back as ErrInvalidPointer instead of
// corrupting the heap.
//
// # Usage Example
//
//	h, err := kheap.Open(&frame.Config{Frames: 256}, nil)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	p, buf, err := h.Alloc(128)
//	if err != nil {
//	    return err // kheap.ErrOutOfMemory when frames run out
//	}
//	copy(buf, "hello")
//
//	p, buf, err = h.Realloc(p, 512) // first 128 bytes preserved
//	...
//	err = h.Free(p)
//
// # Allocation
//
// Alloc scans the list from the lowest address and takes the first block
// whose size is at least the request (rounded up to 8 bytes). When the leftover
// can hold another header, the block is split and the remainder is linked in
// right after it. A miss releases the lock, asks the frame provider for
// ceil((request + header) / frame size) frames, links the new span in address
// order, coalesces, and scans again.
//
// # Release
//
// Free recovers the header by subtracting the translation offset and the
// header size from the pointer. A block whose footprint covers at least one
// whole frame and starts on a frame boundary goes straight back to the frame
// provider. Everything else is linked in before the first free block with a
// higher address and merged with any touching neighbours.
//
// # Address Domains
//
// Frame-domain addresses (mem.Addr) are what the frame provider and the free
// list deal in. Callers only ever see Ptr values, which are payload addresses
// shifted by a constant translation offset (the direct-map base).
//
// # Thread Safety
//
// Heap methods are safe for concurrent use. One mutex guards the free list and
// every header it reaches. The mutex is never held across a call into the
// frame provider.
//
// # Related Packages
//
//   - github.com/joshuapare/kheapkit/mem/frame: Frame provider
//   - github.com/joshuapare/kheapkit/mem/verify: Free-list invariant checks
//   - github.com/joshuapare/kheapkit/internal/format: Header layout
package kheap
