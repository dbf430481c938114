package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// newTestArena maps a small arena for header fixtures.
func newTestArena(t *testing.T) *mem.Arena {
	t.Helper()
	a, err := mem.NewArena(mem.DefaultBase, 4*format.DefaultFrameSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// writeList writes headers for blocks and links them in slice order.
func writeList(t *testing.T, a *mem.Arena, blocks []Block) {
	t.Helper()
	for i, b := range blocks {
		var prev, next uint64
		if i > 0 {
			prev = uint64(blocks[i-1].Addr)
		}
		if i+1 < len(blocks) {
			next = uint64(blocks[i+1].Addr)
		}
		raw, ok := a.Slice(b.Addr, format.HeaderSize)
		require.True(t, ok)
		format.EncodeHeader(raw, format.Header{Size: b.Size, Next: next, Prev: prev})
	}
}

func validList() []Block {
	base := mem.DefaultBase
	return []Block{
		{Addr: base, Size: 64},
		{Addr: base + 0x100, Size: 128},
		{Addr: base + 0x400, Size: 1000},
	}
}

func TestAllInvariants_Valid(t *testing.T) {
	a := newTestArena(t)
	blocks := validList()
	writeList(t, a, blocks)

	require.NoError(t, AllInvariants(blocks, a))
	require.NoError(t, AllInvariants(nil, a), "empty free list is valid")
}

func TestOrdered_Violation(t *testing.T) {
	blocks := validList()
	blocks[1], blocks[2] = blocks[2], blocks[1]

	err := Ordered(blocks)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Ordered", verr.Type)
	require.Equal(t, blocks[2].Addr, verr.Addr)
}

func TestOrdered_Duplicate(t *testing.T) {
	blocks := validList()
	blocks[1].Addr = blocks[0].Addr

	require.Error(t, Ordered(blocks))
}

func TestNonOverlapping_Violation(t *testing.T) {
	blocks := validList()
	blocks[0].Size = 0x100 // runs into the second header

	err := NonOverlapping(blocks)
	require.Error(t, err)
	require.Contains(t, err.Error(), "past successor")
}

func TestCoalesced_Violation(t *testing.T) {
	blocks := validList()
	blocks[0].Size = 0x100 - format.HeaderSize // ends exactly where block 1 starts

	require.NoError(t, NonOverlapping(blocks))
	err := Coalesced(blocks)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not merged")
}

func TestInBounds_Violations(t *testing.T) {
	a := newTestArena(t)

	tests := []struct {
		name  string
		block Block
	}{
		{"misaligned", Block{Addr: mem.DefaultBase + 4, Size: 8}},
		{"below arena", Block{Addr: mem.DefaultBase - 0x1000, Size: 8}},
		{"past end", Block{Addr: a.End() - format.HeaderSize, Size: 8}},
		{"huge size", Block{Addr: mem.DefaultBase, Size: ^uint64(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InBounds([]Block{tt.block}, a)
			require.Error(t, err)
			require.Contains(t, err.Error(), "InBounds")
		})
	}
}

func TestLinks_BrokenBackLink(t *testing.T) {
	a := newTestArena(t)
	blocks := validList()
	writeList(t, a, blocks)

	raw, _ := a.Slice(blocks[2].Addr, format.HeaderSize)
	format.PutU64(raw, format.HeaderPrevOffset, uint64(blocks[0].Addr))

	err := Links(blocks, a)
	require.Error(t, err)
	require.Contains(t, err.Error(), "prev link")
}

func TestLinks_SizeMismatch(t *testing.T) {
	a := newTestArena(t)
	blocks := validList()
	writeList(t, a, blocks)

	blocks[1].Size = 120
	err := Links(blocks, a)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disagrees")
}

func TestLinks_TailMustPointAtSentinel(t *testing.T) {
	a := newTestArena(t)
	blocks := validList()
	writeList(t, a, blocks)

	raw, _ := a.Slice(blocks[2].Addr, format.HeaderSize)
	format.PutU64(raw, format.HeaderNextOffset, uint64(blocks[0].Addr))

	err := Links(blocks, a)
	require.Error(t, err)
	require.Contains(t, err.Error(), "next link")
}

func TestBlockEnd(t *testing.T) {
	b := Block{Addr: mem.DefaultBase, Size: 64}
	require.Equal(t, mem.DefaultBase+format.HeaderSize+64, b.End())
}
