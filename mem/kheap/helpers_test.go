package kheap

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
	"github.com/joshuapare/kheapkit/mem/frame"
)

const testFrame = format.DefaultFrameSize

// seedSize is the payload of the block a fresh heap starts with.
const seedSize = testFrame - format.HeaderSize

// newTestHeap creates a heap over a private frame allocator with the given
// number of frames.
func newTestHeap(t testing.TB, frames int) (*Heap, *frame.Allocator) {
	t.Helper()
	fa, err := frame.New(&frame.Config{Frames: frames})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fa.Close() })

	h, err := New(fa, fa.Memory(), nil)
	require.NoError(t, err)
	return h, fa
}

// assertHeapValid fails the test when any free-list invariant is broken.
func assertHeapValid(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Check())
}

// requireFreeList compares the free list against want.
func requireFreeList(t testing.TB, h *Heap, want ...BlockInfo) {
	t.Helper()
	got, err := h.FreeBlocks()
	require.NoError(t, err)
	if len(want) == 0 {
		require.Empty(t, got)
		return
	}
	require.Equal(t, want, got)
}

// hdrAddr returns the header address behind p.
func hdrAddr(t testing.TB, h *Heap, p Ptr) mem.Addr {
	t.Helper()
	a, ok := h.headerOf(p)
	require.True(t, ok)
	return a
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

var errProvider = errors.New("provider unavailable")

// flakyProvider wraps a frame allocator and can be told to refuse requests
// or releases.
type flakyProvider struct {
	*frame.Allocator

	failRequest atomic.Bool
	failRelease atomic.Bool
	requests    atomic.Int32
}

func (p *flakyProvider) RequestFrames(count int) (mem.Addr, error) {
	p.requests.Add(1)
	if p.failRequest.Load() {
		return 0, errProvider
	}
	return p.Allocator.RequestFrames(count)
}

func (p *flakyProvider) ReleaseFrames(addr mem.Addr, count int) error {
	if p.failRelease.Load() {
		return errProvider
	}
	return p.Allocator.ReleaseFrames(addr, count)
}

func newFlakyHeap(t testing.TB, frames int) (*Heap, *flakyProvider) {
	t.Helper()
	fa, err := frame.New(&frame.Config{Frames: frames})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fa.Close() })

	fp := &flakyProvider{Allocator: fa}
	h, err := New(fp, fa.Memory(), nil)
	require.NoError(t, err)
	return h, fp
}
