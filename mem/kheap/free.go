package kheap

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// Free releases p. Freeing the null pointer is a no-op.
//
// A block that covers at least one whole frame starting on a frame boundary
// goes back to the frame provider; any tail past the last whole frame stays
// in the free list. Everything else is linked back in address order and
// merged with its neighbours.
func (h *Heap) Free(p Ptr) error {
	if p == 0 {
		return nil
	}

	h.mu.Lock()
	hdr, size, err := h.resolve(p)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.stats.FreeCalls++
	h.stats.LiveBlocks--
	h.stats.BytesInUse -= size

	frames, tail := h.frameSpan(hdr, size)
	if frames == 0 {
		h.insertOrdered(hdr)
		h.coalesce()
		h.mu.Unlock()

		if logAlloc {
			h.log.Info("free", "block", hdr.String(), "size", size)
		}
		return nil
	}

	// Untagged and unlinked: a racing Free of p fails in resolve.
	format.ClearTag(h.header(hdr))
	h.mu.Unlock()

	if err := h.fp.ReleaseFrames(hdr, frames); err != nil {
		h.mu.Lock()
		format.StampAllocated(h.header(hdr), uint64(hdr))
		h.stats.FreeCalls--
		h.stats.LiveBlocks++
		h.stats.BytesInUse += size
		h.mu.Unlock()
		h.log.Warn("frame release failed", "block", hdr.String(), "frames", frames, "err", err)
		return fmt.Errorf("release %d frames at %s: %w", frames, hdr, err)
	}

	span := uint64(frames) * uint64(h.frameSize)
	h.mu.Lock()
	h.managed -= span
	h.stats.FramesReturned += frames
	if tail > 0 {
		t := hdr + mem.Addr(span)
		h.newBlock(t, tail-format.HeaderSize)
		h.insertOrdered(t)
		h.coalesce()
	}
	h.mu.Unlock()

	if logAlloc {
		h.log.Info("free", "block", hdr.String(), "size", size, "frames_returned", frames)
	}
	return nil
}

// resolve validates p and returns its header address and usable size.
// Caller holds h.mu.
func (h *Heap) resolve(p Ptr) (mem.Addr, uint64, error) {
	hdr, ok := h.headerOf(p)
	if !ok || !h.mem.Contains(hdr, format.HeaderSize) {
		return 0, 0, fmt.Errorf("%w: %#x", ErrInvalidPointer, uint64(p))
	}
	if !format.IsAligned8(uint64(hdr)) {
		return 0, 0, fmt.Errorf("%w: %#x: %w", ErrInvalidPointer, uint64(p), format.ErrMisaligned)
	}
	hd, err := format.DecodeHeader(h.header(hdr))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %#x: %w", ErrInvalidPointer, uint64(p), err)
	}
	if !hd.IsAllocated(uint64(hdr)) {
		return 0, 0, fmt.Errorf("%w: %#x is not a live allocation", ErrInvalidPointer, uint64(p))
	}
	if hd.Size > h.managed || !format.IsAligned8(hd.Size) || !h.mem.Contains(hdr, int(hd.Footprint())) {
		return 0, 0, fmt.Errorf("%w: block %s claims %d bytes", ErrCorruptedHeap, hdr, hd.Size)
	}
	return hdr, hd.Size, nil
}

// frameSpan reports how many whole frames the block at hdr can hand back
// and the bytes left over after them. frames is 0 when the block must stay
// in the free list: it does not start on a frame boundary, it is smaller
// than a frame, or the leftover is too small to carry a header.
func (h *Heap) frameSpan(hdr mem.Addr, size uint64) (frames int, tail uint64) {
	fs := uint64(h.frameSize)
	footprint := size + format.HeaderSize
	if footprint < fs || uint64(hdr)%fs != 0 {
		return 0, 0
	}
	n := footprint / fs
	tail = footprint - n*fs
	if tail != 0 && tail < format.HeaderSize {
		return 0, 0
	}
	return int(n), tail
}
