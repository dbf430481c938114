package frame

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/joshuapare/kheapkit/internal/buf"
	"github.com/joshuapare/kheapkit/mem"
)

// Allocator is a first-fit bitmap frame allocator over a mem.Arena.
type Allocator struct {
	mu sync.Mutex

	arena     *mem.Arena
	ownsArena bool // Close unmaps the arena when true
	frameSize int
	frames    int

	// One bit per frame; set means allocated.
	bitmap []uint64
	used   int

	stats Stats

	// Test hook: called after every successful request (nil in production)
	onRequest func(addr mem.Addr, count int)
}

// Stats holds frame allocator counters.
type Stats struct {
	Requests       int // Successful RequestFrames calls
	Failures       int // RequestFrames calls that returned ErrExhausted
	Releases       int // Successful ReleaseFrames calls
	FramesInUse    int // Frames currently allocated
	FramesTotal    int // Frames in the arena
	FramesGranted  int // Frames handed out over the allocator's lifetime
	FramesReturned int // Frames released over the allocator's lifetime
}

// New maps a fresh arena described by cfg and returns an allocator owning it.
// A nil cfg selects DefaultConfig.
func New(cfg *Config) (*Allocator, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := cfg.withDefaults()
	if !validFrameSize(c.FrameSize) {
		return nil, fmt.Errorf("%w: frame size %d", ErrBadConfig, c.FrameSize)
	}
	if c.Frames < 0 {
		return nil, fmt.Errorf("%w: frame count %d", ErrBadConfig, c.Frames)
	}
	size, ok := buf.MulOverflowSafe(c.Frames, c.FrameSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d frames of %d bytes overflow", ErrBadConfig, c.Frames, c.FrameSize)
	}
	arena, err := mem.NewArena(c.Base, size)
	if err != nil {
		return nil, err
	}
	fa, err := NewFromArena(arena, c.FrameSize)
	if err != nil {
		_ = arena.Close()
		return nil, err
	}
	fa.ownsArena = true
	return fa, nil
}

// NewFromArena carves an existing arena into frames of frameSize bytes. The
// arena base must be frame-aligned; a trailing partial frame is ignored.
func NewFromArena(arena *mem.Arena, frameSize int) (*Allocator, error) {
	if !validFrameSize(frameSize) {
		return nil, fmt.Errorf("%w: frame size %d", ErrBadConfig, frameSize)
	}
	if uint64(arena.Base())%uint64(frameSize) != 0 {
		return nil, fmt.Errorf("%w: base %s not aligned to %d", ErrBadConfig, arena.Base(), frameSize)
	}
	frames := arena.Size() / frameSize
	if frames == 0 {
		return nil, fmt.Errorf("%w: arena smaller than one frame", ErrBadConfig)
	}
	return &Allocator{
		arena:     arena,
		frameSize: frameSize,
		frames:    frames,
		bitmap:    make([]uint64, (frames+63)/64),
		stats:     Stats{FramesTotal: frames},
	}, nil
}

// FrameSize returns the frame granularity in bytes.
func (fa *Allocator) FrameSize() int { return fa.frameSize }

// Memory returns the arena backing the frames. It doubles as the direct map.
func (fa *Allocator) Memory() *mem.Arena { return fa.arena }

// FreeFrames returns the number of unallocated frames.
func (fa *Allocator) FreeFrames() int {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.frames - fa.used
}

// Stats returns a snapshot of the allocator counters.
func (fa *Allocator) Stats() Stats {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	s := fa.stats
	s.FramesInUse = fa.used
	return s
}

// RequestFrames returns the address of count contiguous free frames.
// The frames are zeroed.
func (fa *Allocator) RequestFrames(count int) (mem.Addr, error) {
	if count <= 0 {
		return 0, ErrBadCount
	}

	fa.mu.Lock()
	start, ok := fa.findRun(count)
	if !ok {
		fa.stats.Failures++
		free := fa.frames - fa.used
		fa.mu.Unlock()
		return 0, fmt.Errorf("%w: want %d, %d free", ErrExhausted, count, free)
	}
	for i := start; i < start+count; i++ {
		fa.set(i)
	}
	fa.used += count
	fa.stats.Requests++
	fa.stats.FramesGranted += count
	hook := fa.onRequest
	fa.mu.Unlock()

	addr := fa.addrOf(start)
	if hook != nil {
		hook(addr, count)
	}
	return addr, nil
}

// ReleaseFrames returns count frames starting at addr. Every frame in the
// range must currently be allocated; otherwise nothing is released.
func (fa *Allocator) ReleaseFrames(addr mem.Addr, count int) error {
	if count <= 0 {
		return ErrBadCount
	}
	start, ok := fa.indexOf(addr)
	if !ok || start+count > fa.frames {
		return fmt.Errorf("%w: %s+%d frames", ErrBadAddr, addr, count)
	}

	fa.mu.Lock()
	for i := start; i < start+count; i++ {
		if !fa.isSet(i) {
			fa.mu.Unlock()
			return fmt.Errorf("%w: frame %s", ErrDoubleRelease, fa.addrOf(i))
		}
	}
	// Frames are wiped before their bits clear so a racing request never
	// receives memory that is still being zeroed.
	if err := fa.arena.Discard(addr, count*fa.frameSize); err != nil {
		fa.mu.Unlock()
		return err
	}
	for i := start; i < start+count; i++ {
		fa.clear(i)
	}
	fa.used -= count
	fa.stats.Releases++
	fa.stats.FramesReturned += count
	fa.mu.Unlock()
	return nil
}

// Close unmaps the arena if this allocator created it.
func (fa *Allocator) Close() error {
	if !fa.ownsArena {
		return nil
	}
	return fa.arena.Close()
}

// findRun returns the first index of count consecutive clear bits.
func (fa *Allocator) findRun(count int) (int, bool) {
	run := 0
	for i := 0; i < fa.frames; i++ {
		word := fa.bitmap[i/64]
		// Skip whole words of allocated frames.
		if i%64 == 0 && word == ^uint64(0) {
			run = 0
			i += 63
			continue
		}
		// Skip whole words of free frames when the run can absorb them.
		if i%64 == 0 && word == 0 && i+64 <= fa.frames {
			run += 64
			if run >= count {
				return i + 64 - run, true
			}
			i += 63
			continue
		}
		if fa.isSet(i) {
			run = 0
			continue
		}
		run++
		if run == count {
			return i - count + 1, true
		}
	}
	return 0, false
}

func (fa *Allocator) isSet(i int) bool { return fa.bitmap[i/64]&(1<<(uint(i)%64)) != 0 }
func (fa *Allocator) set(i int)        { fa.bitmap[i/64] |= 1 << (uint(i) % 64) }
func (fa *Allocator) clear(i int)      { fa.bitmap[i/64] &^= 1 << (uint(i) % 64) }

func (fa *Allocator) addrOf(i int) mem.Addr {
	return fa.arena.Base() + mem.Addr(i*fa.frameSize)
}

func (fa *Allocator) indexOf(addr mem.Addr) (int, bool) {
	base := fa.arena.Base()
	if addr < base {
		return 0, false
	}
	rel := uint64(addr - base)
	if rel%uint64(fa.frameSize) != 0 {
		return 0, false
	}
	idx := rel / uint64(fa.frameSize)
	if idx >= uint64(fa.frames) {
		return 0, false
	}
	return int(idx), true
}

// countSet returns the number of allocated frames according to the bitmap.
func (fa *Allocator) countSet() int {
	n := 0
	for _, w := range fa.bitmap {
		n += bits.OnesCount64(w)
	}
	return n
}
