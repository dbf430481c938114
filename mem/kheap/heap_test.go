package kheap

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
	"github.com/joshuapare/kheapkit/mem/frame"
)

func TestNewSeedsOneFrame(t *testing.T) {
	h, fa := newTestHeap(t, 4)

	requireFreeList(t, h, BlockInfo{Addr: mem.DefaultBase, Size: seedSize})
	assert.Equal(t, 3, fa.FreeFrames())
	assert.Equal(t, testFrame, h.FrameSize())
	assert.Equal(t, format.DefaultOffset, h.Offset())

	s := h.Stats()
	assert.Equal(t, 1, s.FramesRequested)
	assert.Equal(t, uint64(testFrame), s.ManagedBytes)
	assertHeapValid(t, h)
}

func TestNewLogsReadiness(t *testing.T) {
	fa, err := frame.New(&frame.Config{Frames: 2})
	require.NoError(t, err)
	defer fa.Close()

	var out bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&out, nil))
	_, err = New(fa, fa.Memory(), &Options{Logger: lg})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "kernel heap initialized")
}

func TestNewFailsWithoutSeedFrame(t *testing.T) {
	fa, err := frame.New(&frame.Config{Frames: 1})
	require.NoError(t, err)
	defer fa.Close()

	_, err = fa.RequestFrames(1)
	require.NoError(t, err)

	_, err = New(fa, fa.Memory(), nil)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, frame.ErrExhausted)
}

func TestNewRejectsOffsetOverflow(t *testing.T) {
	fa, err := frame.New(&frame.Config{Frames: 1})
	require.NoError(t, err)
	defer fa.Close()

	_, err = New(fa, fa.Memory(), &Options{Offset: ^uint64(0) - 16})
	require.ErrorIs(t, err, ErrBadProvider)
}

func TestOpenOwnsProvider(t *testing.T) {
	h, err := Open(&frame.Config{Frames: 8, FrameSize: 512}, nil)
	require.NoError(t, err)

	assert.Equal(t, 512, h.FrameSize())
	p, _, err := h.Alloc(100)
	require.NoError(t, err)
	require.NoError(t, h.Free(p))
	require.NoError(t, h.Close())
}

func TestOptionsDefaults(t *testing.T) {
	o := (*Options)(nil).withDefaults()
	assert.NotNil(t, o.Logger)
	assert.Equal(t, format.DefaultOffset, o.Offset)
	assert.Equal(t, defaultMaxGrowAttempts, o.MaxGrowAttempts)

	o = (&Options{Offset: 0x1000, MaxGrowAttempts: 5}).withDefaults()
	assert.Equal(t, uint64(0x1000), o.Offset)
	assert.Equal(t, 5, o.MaxGrowAttempts)
}

func TestPointerTranslation(t *testing.T) {
	h, _ := newTestHeap(t, 2)

	p, _, err := h.Alloc(64)
	require.NoError(t, err)
	assert.Equal(t, Ptr(uint64(mem.DefaultBase)+format.HeaderSize+format.DefaultOffset), p)
	assert.Equal(t, mem.DefaultBase, hdrAddr(t, h, p))
}

func TestCustomOffset(t *testing.T) {
	fa, err := frame.New(&frame.Config{Frames: 2})
	require.NoError(t, err)
	defer fa.Close()

	h, err := New(fa, fa.Memory(), &Options{Offset: 0x4000_0000})
	require.NoError(t, err)

	p, _, err := h.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, Ptr(0x4000_0000+uint64(mem.DefaultBase)+format.HeaderSize), p)
	require.NoError(t, h.Free(p))
}
