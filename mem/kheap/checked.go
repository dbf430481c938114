package kheap

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Checked wraps an Allocator and records the call site of every live
// allocation so tests can report leaks.
type Checked struct {
	mem Allocator
	sz  atomic.Int64

	allocs sync.Map // Ptr -> *liveAlloc
}

type liveAlloc struct {
	pc   uintptr
	line int
	sz   int
}

// callerFrames skips Checked's own frames when recording the call site.
const callerFrames = 2

// NewChecked wraps mem.
func NewChecked(mem Allocator) *Checked {
	return &Checked{mem: mem}
}

// CurrentAlloc returns the bytes requested by live allocations.
func (c *Checked) CurrentAlloc() int { return int(c.sz.Load()) }

// Outstanding returns the number of live allocations.
func (c *Checked) Outstanding() int {
	n := 0
	c.allocs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *Checked) Alloc(size int) (Ptr, []byte, error) {
	p, b, err := c.mem.Alloc(size)
	if err != nil {
		return p, b, err
	}
	c.track(p, size)
	return p, b, nil
}

func (c *Checked) Calloc(size int) (Ptr, []byte, error) {
	p, b, err := c.mem.Calloc(size)
	if err != nil {
		return p, b, err
	}
	c.track(p, size)
	return p, b, nil
}

func (c *Checked) Free(p Ptr) error {
	if err := c.mem.Free(p); err != nil {
		return err
	}
	c.untrack(p)
	return nil
}

func (c *Checked) Realloc(p Ptr, size int) (Ptr, []byte, error) {
	np, b, err := c.mem.Realloc(p, size)
	if err != nil {
		return np, b, err
	}
	c.untrack(p)
	if np != 0 {
		c.track(np, size)
	}
	return np, b, nil
}

func (c *Checked) track(p Ptr, size int) {
	c.sz.Add(int64(size))
	info := &liveAlloc{sz: size}
	if pc, _, l, ok := runtime.Caller(callerFrames); ok {
		info.pc, info.line = pc, l
	}
	c.allocs.Store(p, info)
}

func (c *Checked) untrack(p Ptr) {
	if v, ok := c.allocs.LoadAndDelete(p); ok {
		c.sz.Add(-int64(v.(*liveAlloc).sz))
	}
}

// TestingT is the subset of testing.TB used by AssertSize.
type TestingT interface {
	Errorf(format string, args ...any)
	Helper()
}

// AssertSize reports every live allocation as a leak and fails when the
// tracked byte count differs from sz.
func (c *Checked) AssertSize(t TestingT, sz int) {
	t.Helper()
	c.allocs.Range(func(key, value any) bool {
		info := value.(*liveAlloc)
		name := "unknown"
		if f := runtime.FuncForPC(info.pc); f != nil {
			name = f.Name()
		}
		t.Errorf("LEAK of %d bytes at %#x FROM %s line %d", info.sz, uint64(key.(Ptr)), name, info.line)
		return true
	})

	if got := c.CurrentAlloc(); got != sz {
		t.Errorf("invalid memory size exp=%d, got=%d", sz, got)
	}
}
