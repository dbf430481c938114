package kheap

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joshuapare/kheapkit/internal/buf"
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
	"github.com/joshuapare/kheapkit/mem/frame"
)

// sentinel is the address of the free-list head. No arena starts at 0.
const sentinel mem.Addr = 0

// Heap is the kernel heap allocator.
type Heap struct {
	mu sync.Mutex // guards head, every free header, stats and managed

	fp  FrameProvider
	mem mem.Memory
	log *slog.Logger

	frameSize   int
	offset      uint64
	maxGrow     int
	ownProvider bool // Close closes fp when true

	// head holds the sentinel's links: head.next is the lowest free block,
	// head.prev the highest.
	head struct{ next, prev mem.Addr }

	// Bytes currently owned by the heap (granted by fp and not yet returned).
	// Bounds free-list walks when checking for corruption.
	managed uint64

	stats allocatorStats

	// Test hook: called before each grow with the frame count (nil in production)
	onGrow func(frames int)
}

// New initializes a heap on top of fp, using m as the direct map, and seeds
// the free list with one frame. A nil opts selects the defaults.
func New(fp FrameProvider, m mem.Memory, opts *Options) (*Heap, error) {
	o := opts.withDefaults()

	fs := fp.FrameSize()
	if fs < 2*format.HeaderSize || fs%format.BlockAlignment != 0 {
		return nil, fmt.Errorf("%w: frame size %d", ErrBadProvider, fs)
	}

	h := &Heap{
		fp:        fp,
		mem:       m,
		log:       o.Logger,
		frameSize: fs,
		offset:    o.Offset,
		maxGrow:   o.MaxGrowAttempts,
	}

	addr, err := fp.RequestFrames(1)
	if err != nil {
		return nil, fmt.Errorf("%w: seed frame: %w", ErrOutOfMemory, err)
	}
	if !m.Contains(addr, fs) {
		_ = fp.ReleaseFrames(addr, 1)
		return nil, fmt.Errorf("%w: seed frame %s not mapped", ErrBadProvider, addr)
	}
	if _, ok := buf.AddU64OverflowSafe(uint64(addr)+uint64(fs), h.offset); !ok {
		_ = fp.ReleaseFrames(addr, 1)
		return nil, fmt.Errorf("%w: offset %#x overflows frame %s", ErrBadProvider, h.offset, addr)
	}

	h.mu.Lock()
	h.addSpan(addr, uint64(fs))
	h.stats.FramesRequested++
	h.mu.Unlock()

	h.log.Info("kernel heap initialized",
		"frame_size", fs,
		"offset", fmt.Sprintf("%#x", h.offset),
		"seed", addr.String(),
	)
	return h, nil
}

// Open creates a frame allocator from cfg and a heap on top of it. The heap
// owns the frame allocator; Close releases both.
func Open(cfg *frame.Config, opts *Options) (*Heap, error) {
	fa, err := frame.New(cfg)
	if err != nil {
		return nil, err
	}
	h, err := New(fa, fa.Memory(), opts)
	if err != nil {
		_ = fa.Close()
		return nil, err
	}
	h.ownProvider = true
	return h, nil
}

// Close releases the frame provider if the heap created it. Pointers handed
// out by the heap must not be used afterwards.
func (h *Heap) Close() error {
	if !h.ownProvider {
		return nil
	}
	if c, ok := h.fp.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FrameSize returns the frame granularity of the underlying provider.
func (h *Heap) FrameSize() int { return h.frameSize }

// Offset returns the translation offset applied to caller pointers.
func (h *Heap) Offset() uint64 { return h.offset }

// toPtr converts a header address into the caller-visible payload pointer.
func (h *Heap) toPtr(hdr mem.Addr) Ptr {
	return Ptr(uint64(hdr) + format.HeaderSize + h.offset)
}

// headerOf converts a caller pointer back into its header address.
// ok is false when p cannot have come from this heap.
func (h *Heap) headerOf(p Ptr) (mem.Addr, bool) {
	v := uint64(p)
	if v < h.offset+format.HeaderSize {
		return 0, false
	}
	return mem.Addr(v - h.offset - format.HeaderSize), true
}

// payload returns the usable bytes of the block at hdr, len == size.
func (h *Heap) payload(hdr mem.Addr, size uint64) []byte {
	b, ok := h.mem.Slice(hdr+format.HeaderSize, int(size))
	if !ok {
		panic(fmt.Errorf("%w: payload %s+%d unmapped", ErrCorruptedHeap, hdr, size))
	}
	return b
}
