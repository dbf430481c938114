package kheap

import (
	"fmt"

	"github.com/joshuapare/kheapkit/mem/verify"
)

// FreeBlocks returns the free list in list order. The result is a copy.
func (h *Heap) FreeBlocks() ([]BlockInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

// Check walks the free list and verifies it is address-ordered, in bounds,
// non-overlapping, fully coalesced and consistently linked.
func (h *Heap) Check() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	blocks, err := h.snapshot()
	if err != nil {
		return err
	}
	if err := verify.AllInvariants(blocks, h.mem); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedHeap, err)
	}
	var free uint64
	for _, b := range blocks {
		free += b.Size
	}
	if free > h.managed {
		return fmt.Errorf("%w: %d free bytes exceed %d managed", ErrCorruptedHeap, free, h.managed)
	}
	return nil
}

// UsableSize returns the payload capacity of the live block at p, which may
// exceed the size originally requested.
func (h *Heap) UsableSize(p Ptr) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, size, err := h.resolve(p)
	if err != nil {
		return 0, err
	}
	return int(size), nil
}

// Bytes returns the full payload of the live block at p. len is the usable
// size. The slice is only valid until p is freed.
func (h *Heap) Bytes(p Ptr) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hdr, size, err := h.resolve(p)
	if err != nil {
		return nil, err
	}
	return h.payload(hdr, size), nil
}
