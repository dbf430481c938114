package kheap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingT struct {
	errs []string
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *recordingT) Helper() {}

func TestCheckedBalanced(t *testing.T) {
	h, _ := newTestHeap(t, 4)
	c := NewChecked(h)

	a, _, err := c.Alloc(100)
	require.NoError(t, err)
	b, _, err := c.Calloc(50)
	require.NoError(t, err)
	assert.Equal(t, 150, c.CurrentAlloc())
	assert.Equal(t, 2, c.Outstanding())

	a, _, err = c.Realloc(a, 300)
	require.NoError(t, err)
	assert.Equal(t, 350, c.CurrentAlloc())

	require.NoError(t, c.Free(a))
	require.NoError(t, c.Free(b))
	assert.Zero(t, c.Outstanding())
	c.AssertSize(t, 0)
}

func TestCheckedReportsLeak(t *testing.T) {
	h, _ := newTestHeap(t, 4)
	c := NewChecked(h)

	_, _, err := c.Alloc(64)
	require.NoError(t, err)

	rt := &recordingT{}
	c.AssertSize(rt, 0)
	require.Len(t, rt.errs, 2)
	assert.Contains(t, rt.errs[0], "LEAK of 64 bytes")
	assert.Contains(t, rt.errs[0], "TestCheckedReportsLeak")
	assert.Contains(t, rt.errs[1], "exp=0, got=64")
}

func TestCheckedFailedOpsNotTracked(t *testing.T) {
	h, _ := newTestHeap(t, 2)
	c := NewChecked(h)

	_, _, err := c.Alloc(0)
	require.ErrorIs(t, err, ErrZeroSize)
	require.ErrorIs(t, c.Free(Ptr(0x10)), ErrInvalidPointer)

	p, _, err := c.Alloc(32)
	require.NoError(t, err)
	np, _, err := c.Realloc(p, 0)
	require.NoError(t, err)
	assert.Zero(t, np)
	c.AssertSize(t, 0)
}
