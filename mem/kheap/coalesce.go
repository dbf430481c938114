package kheap

import "github.com/joshuapare/kheapkit/internal/format"

// coalesce merges every pair of list-adjacent free blocks whose memory is
// also contiguous. The list is address-ordered, so one pass suffices.
// Caller holds h.mu.
func (h *Heap) coalesce() {
	prev := h.next(sentinel)
	if prev == sentinel {
		return
	}
	for cur := h.next(prev); cur != sentinel; {
		if h.end(prev) != cur {
			prev = cur
			cur = h.next(cur)
			continue
		}
		h.setSize(prev, h.sizeOf(prev)+format.HeaderSize+h.sizeOf(cur))
		h.unlink(cur)
		h.stats.MergeCount++
		cur = h.next(prev)
	}
}
