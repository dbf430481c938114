package mem

import (
	"errors"
	"fmt"

	"github.com/joshuapare/kheapkit/internal/buf"
	"github.com/joshuapare/kheapkit/internal/mmap"
)

// DefaultBase is the frame-domain address of the first arena byte when no
// base is configured. It mirrors the 1 MiB mark where x86 kernels commonly
// start handing out physical frames.
const DefaultBase Addr = 0x100000

var (
	// ErrZeroBase indicates an arena was requested at address 0.
	ErrZeroBase = errors.New("mem: arena base must be non-zero")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("mem: arena closed")
)

// Addr is a frame-domain address.
type Addr uint64

// String formats the address in hex.
func (a Addr) String() string { return fmt.Sprintf("%#x", uint64(a)) }

// Memory is the direct map: it resolves frame-domain addresses to bytes.
type Memory interface {
	// Slice returns the n bytes starting at addr, or false when any of them
	// fall outside the mapped range.
	Slice(addr Addr, n int) ([]byte, bool)

	// Contains reports whether [addr, addr+n) is mapped.
	Contains(addr Addr, n int) bool
}

// Arena is a contiguous span of anonymous memory addressed by Addr.
//
// Slice is safe for concurrent use; synchronizing access to the bytes it
// returns is the caller's job.
type Arena struct {
	base    Addr
	data    []byte
	cleanup func() error
}

// NewArena maps size bytes and places them at base in the frame domain.
func NewArena(base Addr, size int) (*Arena, error) {
	if base == 0 {
		return nil, ErrZeroBase
	}
	if _, ok := buf.AddU64OverflowSafe(uint64(base), uint64(size)); !ok || size <= 0 {
		return nil, fmt.Errorf("mem: invalid arena span base=%s size=%d", base, size)
	}
	data, cleanup, err := mmap.Anon(size)
	if err != nil {
		return nil, err
	}
	return &Arena{base: base, data: data, cleanup: cleanup}, nil
}

// Base returns the first address in the arena.
func (a *Arena) Base() Addr { return a.base }

// End returns the address one past the last arena byte.
func (a *Arena) End() Addr { return a.base + Addr(len(a.data)) }

// Size returns the arena length in bytes.
func (a *Arena) Size() int { return len(a.data) }

// Contains reports whether [addr, addr+n) lies inside the arena.
func (a *Arena) Contains(addr Addr, n int) bool {
	_, ok := a.offset(addr, n)
	return ok
}

// Slice returns the arena bytes for [addr, addr+n). The result's capacity is
// clipped to n.
func (a *Arena) Slice(addr Addr, n int) ([]byte, bool) {
	off, ok := a.offset(addr, n)
	if !ok {
		return nil, false
	}
	return buf.Slice(a.data, off, n)
}

// Discard releases the pages backing [addr, addr+n) to the operating system.
// The range reads back as zeroes afterwards.
func (a *Arena) Discard(addr Addr, n int) error {
	b, ok := a.Slice(addr, n)
	if !ok {
		return fmt.Errorf("mem: discard %s+%d outside arena", addr, n)
	}
	return mmap.Discard(b)
}

// Close unmaps the arena. Any slices obtained from it become invalid.
func (a *Arena) Close() error {
	if a.data == nil {
		return ErrClosed
	}
	a.data = nil
	return a.cleanup()
}

func (a *Arena) offset(addr Addr, n int) (int, bool) {
	if n < 0 || addr < a.base {
		return 0, false
	}
	rel := uint64(addr - a.base)
	if rel > uint64(len(a.data)) {
		return 0, false
	}
	off := int(rel)
	if _, err := buf.CheckSpan(len(a.data), off, n); err != nil {
		return 0, false
	}
	return off, true
}
