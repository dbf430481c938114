package kheap

import (
	"fmt"
	"io"
)

// allocatorStats holds internal allocator counters. Guarded by Heap.mu.
type allocatorStats struct {
	AllocCalls      int    // Alloc calls, Calloc included
	CallocCalls     int    // Calloc calls
	FreeCalls       int    // Successful Free calls on non-null pointers
	ReallocCalls    int    // Successful Realloc calls that did work
	AllocFastPath   int    // Allocations served without growing
	AllocSlowPath   int    // Allocations that needed at least one grow
	SplitCount      int    // Blocks split on allocation
	MergeCount      int    // Adjacent free blocks merged
	GrowCalls       int    // Successful grows
	GrowFailures    int    // Grows refused by the frame provider
	FramesRequested int    // Frames obtained from the provider, seed included
	FramesReturned  int    // Frames handed back by Free
	LiveBlocks      int    // Allocated blocks not yet freed
	BytesInUse      uint64 // Usable bytes of live blocks
}

// Stats is a point-in-time view of the heap.
type Stats struct {
	allocatorStats

	FreeBlocks   int    // Blocks on the free list
	FreeBytes    uint64 // Sum of free block sizes (headers excluded)
	LargestFree  uint64 // Largest free block size
	ManagedBytes uint64 // Frame bytes currently owned by the heap
}

// Stats returns a snapshot of the heap counters and free-list shape.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Stats{allocatorStats: h.stats, ManagedBytes: h.managed}
	blocks, err := h.snapshot()
	if err != nil {
		h.log.Warn("heap stats from partial free list", "blocks", len(blocks), "err", err)
	}
	for _, b := range blocks {
		s.FreeBlocks++
		s.FreeBytes += b.Size
		s.LargestFree = max(s.LargestFree, b.Size)
	}
	return s
}

// PrintStats writes a human-readable summary of Stats to w.
func (h *Heap) PrintStats(w io.Writer) {
	s := h.Stats()
	fmt.Fprintf(w, "\n=== KERNEL HEAP STATISTICS ===\n")
	fmt.Fprintf(w, "Frame size:         %d\n", h.frameSize)
	fmt.Fprintf(
		w,
		"Alloc calls:        %d (fast: %d, slow: %d, calloc: %d)\n",
		s.AllocCalls,
		s.AllocFastPath,
		s.AllocSlowPath,
		s.CallocCalls,
	)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(w, "Realloc calls:      %d\n", s.ReallocCalls)
	fmt.Fprintf(w, "Splits:             %d\n", s.SplitCount)
	fmt.Fprintf(w, "Merges:             %d\n", s.MergeCount)
	fmt.Fprintf(w, "Grow calls:         %d (%d failed)\n", s.GrowCalls, s.GrowFailures)
	fmt.Fprintf(w, "Frames requested:   %d\n", s.FramesRequested)
	fmt.Fprintf(w, "Frames returned:    %d\n", s.FramesReturned)
	fmt.Fprintf(w, "Live blocks:        %d (%d bytes)\n", s.LiveBlocks, s.BytesInUse)

	fmt.Fprintf(w, "\nFree list:\n")
	fmt.Fprintf(w, "  Blocks:           %d\n", s.FreeBlocks)
	fmt.Fprintf(w, "  Free bytes:       %d\n", s.FreeBytes)
	fmt.Fprintf(w, "  Largest block:    %d\n", s.LargestFree)
	if s.ManagedBytes > 0 {
		fmt.Fprintf(w, "  Managed:          %d bytes (%.1f%% free)\n",
			s.ManagedBytes, 100.0*float64(s.FreeBytes)/float64(s.ManagedBytes))
	}
	fmt.Fprintf(w, "==============================\n\n")
}
