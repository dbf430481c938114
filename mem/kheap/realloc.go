package kheap

import "fmt"

// Realloc moves the allocation at p into a fresh block of size bytes.
//
//   - p == 0 and size == 0: no-op, returns the null pointer
//   - size == 0: frees p and returns the null pointer
//   - p == 0: same as Alloc(size)
//
// Otherwise the first min(old, size) bytes are copied and p is freed. When
// the new block cannot be obtained, p is left untouched and stays valid.
func (h *Heap) Realloc(p Ptr, size int) (Ptr, []byte, error) {
	if size < 0 {
		return 0, nil, ErrZeroSize
	}
	switch {
	case p == 0 && size == 0:
		return 0, nil, nil
	case size == 0:
		h.countRealloc()
		return 0, nil, h.Free(p)
	case p == 0:
		h.countRealloc()
		return h.Alloc(size)
	}

	old, err := h.Bytes(p)
	if err != nil {
		return 0, nil, err
	}

	np, nb, err := h.Alloc(size)
	if err != nil {
		return 0, nil, fmt.Errorf("realloc %#x to %d bytes: %w", uint64(p), size, err)
	}
	copy(nb, old)

	if err := h.Free(p); err != nil {
		// p was validated above, so only a racing Free gets here.
		_ = h.Free(np)
		return 0, nil, err
	}
	h.countRealloc()
	return np, nb, nil
}

func (h *Heap) countRealloc() {
	h.mu.Lock()
	h.stats.ReallocCalls++
	h.mu.Unlock()
}
