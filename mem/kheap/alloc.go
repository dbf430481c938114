package kheap

import (
	"fmt"
	"math"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// minSplit is the smallest leftover worth splitting off: a header plus a
// payload at least as large as one.
const minSplit = 2 * format.HeaderSize

// maxRequest keeps Align8 and the frame-count arithmetic from overflowing.
const maxRequest = math.MaxInt32

// Alloc returns a pointer to at least size bytes along with a view of the
// first size of them. The view's capacity extends over any slack absorbed
// from the block.
func (h *Heap) Alloc(size int) (Ptr, []byte, error) {
	if size <= 0 {
		return 0, nil, ErrZeroSize
	}
	if size > maxRequest {
		return 0, nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}
	need := uint64(format.Align8(size))

	for attempt := 0; ; attempt++ {
		h.mu.Lock()
		if attempt == 0 {
			h.stats.AllocCalls++
		}
		addr, got, ok := h.takeFirstFit(need)
		if ok {
			if attempt == 0 {
				h.stats.AllocFastPath++
			} else {
				h.stats.AllocSlowPath++
			}
			h.stats.LiveBlocks++
			h.stats.BytesInUse += got
			h.mu.Unlock()

			if logAlloc {
				h.log.Info("alloc", "size", size, "block", addr.String(), "usable", got)
			}
			return h.toPtr(addr), h.payload(addr, got)[:size], nil
		}
		h.mu.Unlock()

		if attempt >= h.maxGrow {
			return 0, nil, fmt.Errorf("%w: no block of %d bytes after %d grows", ErrOutOfMemory, need, attempt)
		}
		if err := h.grow(need); err != nil {
			return 0, nil, err
		}
	}
}

// Calloc is Alloc followed by zeroing the first size bytes.
func (h *Heap) Calloc(size int) (Ptr, []byte, error) {
	p, b, err := h.Alloc(size)
	if err != nil {
		return 0, nil, err
	}
	clear(b)

	h.mu.Lock()
	h.stats.CallocCalls++
	h.mu.Unlock()
	return p, b, nil
}

// takeFirstFit removes the first block of at least need bytes from the free
// list, splitting off the remainder when, past its own header, it still has
// HeaderSize bytes of payload. Smaller slivers stay with the caller. It
// returns the block's header address and usable size. Caller holds h.mu.
func (h *Heap) takeFirstFit(need uint64) (mem.Addr, uint64, bool) {
	for cur := h.next(sentinel); cur != sentinel; cur = h.next(cur) {
		size := h.sizeOf(cur)
		if size < need {
			continue
		}

		if size-need >= minSplit {
			rem := cur + format.HeaderSize + mem.Addr(need)
			h.newBlock(rem, size-need-format.HeaderSize)
			h.insertAfter(rem, cur)
			h.setSize(cur, need)
			size = need
			h.stats.SplitCount++
		}

		h.unlink(cur)
		format.StampAllocated(h.header(cur), uint64(cur))
		return cur, size, true
	}
	return 0, 0, false
}

// grow asks the frame provider for enough frames to hold a block of need
// bytes and links them into the free list. h.mu must NOT be held: the
// provider takes its own lock.
func (h *Heap) grow(need uint64) error {
	frames := format.FramesFor(int(need)+format.HeaderSize, h.frameSize)

	if h.onGrow != nil {
		h.onGrow(frames)
	}

	addr, err := h.fp.RequestFrames(frames)
	if err != nil {
		h.mu.Lock()
		h.stats.GrowFailures++
		h.mu.Unlock()
		h.log.Warn("heap grow failed", "frames", frames, "need", need, "err", err)
		return fmt.Errorf("%w: request %d frames: %w", ErrOutOfMemory, frames, err)
	}
	span := uint64(frames) * uint64(h.frameSize)
	if !h.mem.Contains(addr, int(span)) {
		// Hand the frames back rather than link unmapped memory.
		_ = h.fp.ReleaseFrames(addr, frames)
		return fmt.Errorf("%w: frames %s+%d not mapped", ErrBadProvider, addr, frames)
	}

	h.mu.Lock()
	h.addSpan(addr, span)
	h.coalesce()
	h.stats.GrowCalls++
	h.stats.FramesRequested += frames
	h.mu.Unlock()

	if logAlloc {
		h.log.Info("grow", "frames", frames, "addr", addr.String(), "need", need)
	}
	return nil
}
