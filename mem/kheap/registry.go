package kheap

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// Free-list primitives. Every function here expects h.mu to be held.
//
// Header bytes are reached only through header(), so an address that strays
// outside frame memory panics with ErrCorruptedHeap instead of scribbling on
// unrelated memory.

// header returns the 24 header bytes at addr.
func (h *Heap) header(addr mem.Addr) []byte {
	b, ok := h.mem.Slice(addr, format.HeaderSize)
	if !ok {
		panic(fmt.Errorf("%w: header %s unmapped", ErrCorruptedHeap, addr))
	}
	return b
}

func (h *Heap) sizeOf(addr mem.Addr) uint64 {
	return format.ReadU64(h.header(addr), format.HeaderSizeOffset)
}

func (h *Heap) setSize(addr mem.Addr, size uint64) {
	format.PutU64(h.header(addr), format.HeaderSizeOffset, size)
}

// end returns the address one past the payload of the block at addr.
func (h *Heap) end(addr mem.Addr) mem.Addr {
	return addr + format.HeaderSize + mem.Addr(h.sizeOf(addr))
}

func (h *Heap) next(addr mem.Addr) mem.Addr {
	if addr == sentinel {
		return h.head.next
	}
	return mem.Addr(format.ReadU64(h.header(addr), format.HeaderNextOffset))
}

func (h *Heap) prev(addr mem.Addr) mem.Addr {
	if addr == sentinel {
		return h.head.prev
	}
	return mem.Addr(format.ReadU64(h.header(addr), format.HeaderPrevOffset))
}

func (h *Heap) setNext(addr, v mem.Addr) {
	if addr == sentinel {
		h.head.next = v
		return
	}
	format.PutU64(h.header(addr), format.HeaderNextOffset, uint64(v))
}

func (h *Heap) setPrev(addr, v mem.Addr) {
	if addr == sentinel {
		h.head.prev = v
		return
	}
	format.PutU64(h.header(addr), format.HeaderPrevOffset, uint64(v))
}

// insertAfter splices n between after and after's successor.
func (h *Heap) insertAfter(n, after mem.Addr) {
	nxt := h.next(after)
	h.setNext(n, nxt)
	h.setPrev(n, after)
	h.setPrev(nxt, n)
	h.setNext(after, n)
}

// unlink removes n from the list. n's own link words are left stale.
func (h *Heap) unlink(n mem.Addr) {
	nxt, prv := h.next(n), h.prev(n)
	h.setPrev(nxt, prv)
	h.setNext(prv, nxt)
}

// insertOrdered links n before the first free block with a higher address,
// or at the tail when there is none.
func (h *Heap) insertOrdered(n mem.Addr) {
	for cur := h.next(sentinel); cur != sentinel; cur = h.next(cur) {
		if cur > n {
			h.insertAfter(n, h.prev(cur))
			return
		}
	}
	h.insertAfter(n, h.prev(sentinel))
}

// newBlock writes a fresh unlinked header of the given payload size at addr.
func (h *Heap) newBlock(addr mem.Addr, size uint64) {
	format.EncodeHeader(h.header(addr), format.Header{Size: size})
}

// addSpan turns span bytes at addr into one free block and links it in
// address order. It does not coalesce.
func (h *Heap) addSpan(addr mem.Addr, span uint64) {
	h.newBlock(addr, span-format.HeaderSize)
	h.insertOrdered(addr)
	h.managed += span
}

// snapshot walks the list and returns it in list order. It fails instead of
// looping when the walk visits more blocks than the managed bytes could hold.
func (h *Heap) snapshot() ([]BlockInfo, error) {
	limit := h.managed/format.HeaderSize + 1
	var out []BlockInfo
	for cur := h.next(sentinel); cur != sentinel; cur = h.next(cur) {
		if uint64(len(out)) >= limit {
			return out, fmt.Errorf("%w: free list longer than %d blocks", ErrCorruptedHeap, limit)
		}
		if !h.mem.Contains(cur, format.HeaderSize) {
			return out, fmt.Errorf("%w: link to unmapped %s", ErrCorruptedHeap, cur)
		}
		out = append(out, BlockInfo{Addr: cur, Size: h.sizeOf(cur)})
	}
	return out, nil
}
