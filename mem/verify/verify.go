package verify

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// Block is one free-list entry: the header address and its usable size.
type Block struct {
	Addr mem.Addr
	Size uint64
}

// End returns the address one past the block's last payload byte.
func (b Block) End() mem.Addr {
	return b.Addr + format.HeaderSize + mem.Addr(b.Size)
}

// ValidationError describes a failed free-list check.
type ValidationError struct {
	Type    string
	Message string
	Addr    mem.Addr
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Addr != 0 {
		return fmt.Sprintf("%s at %s: %s", e.Type, e.Addr, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates every free-list invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(blocks []Block, m mem.Memory) error {
	if err := InBounds(blocks, m); err != nil {
		return err
	}
	if err := Ordered(blocks); err != nil {
		return err
	}
	if err := NonOverlapping(blocks); err != nil {
		return err
	}
	if err := Coalesced(blocks); err != nil {
		return err
	}
	return Links(blocks, m)
}

// Ordered checks that header addresses strictly increase.
func Ordered(blocks []Block) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Addr <= blocks[i-1].Addr {
			return &ValidationError{
				Type:    "Ordered",
				Message: fmt.Sprintf("block %d at %s follows %s", i, blocks[i].Addr, blocks[i-1].Addr),
				Addr:    blocks[i].Addr,
				Details: map[string]any{"index": i, "prev": blocks[i-1].Addr},
			}
		}
	}
	return nil
}

// NonOverlapping checks that every block ends at or before its successor starts.
func NonOverlapping(blocks []Block) error {
	for i := 1; i < len(blocks); i++ {
		prev := blocks[i-1]
		if prev.End() > blocks[i].Addr {
			return &ValidationError{
				Type:    "NonOverlapping",
				Message: fmt.Sprintf("block ends at %s past successor %s", prev.End(), blocks[i].Addr),
				Addr:    prev.Addr,
				Details: map[string]any{"end": prev.End(), "next": blocks[i].Addr},
			}
		}
	}
	return nil
}

// Coalesced checks that no two listed blocks touch. A fully coalesced list
// never holds a block whose end equals its successor's start.
func Coalesced(blocks []Block) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].End() == blocks[i].Addr {
			return &ValidationError{
				Type:    "Coalesced",
				Message: fmt.Sprintf("adjacent free blocks %s and %s were not merged", blocks[i-1].Addr, blocks[i].Addr),
				Addr:    blocks[i-1].Addr,
			}
		}
	}
	return nil
}

// InBounds checks that every block, header and payload, is mapped and that
// every header is 8-byte aligned.
func InBounds(blocks []Block, m mem.Memory) error {
	for _, b := range blocks {
		if !format.IsAligned8(uint64(b.Addr)) {
			return &ValidationError{
				Type:    "InBounds",
				Message: "header not 8-byte aligned",
				Addr:    b.Addr,
			}
		}
		if b.Size > uint64(^uint(0)>>1)-format.HeaderSize || !m.Contains(b.Addr, format.HeaderSize+int(b.Size)) {
			return &ValidationError{
				Type:    "InBounds",
				Message: fmt.Sprintf("block of %d bytes leaves the arena", b.Size),
				Addr:    b.Addr,
				Details: map[string]any{"size": b.Size},
			}
		}
	}
	return nil
}

// Links checks that each header's size and prev word agree with the forward
// walk that produced blocks. The first block's prev must be the sentinel (0).
func Links(blocks []Block, m mem.Memory) error {
	var prev mem.Addr
	for i, b := range blocks {
		raw, ok := m.Slice(b.Addr, format.HeaderSize)
		if !ok {
			return &ValidationError{Type: "Links", Message: "header unmapped", Addr: b.Addr}
		}
		h, err := format.DecodeHeader(raw)
		if err != nil {
			return &ValidationError{Type: "Links", Message: err.Error(), Addr: b.Addr}
		}
		if h.Size != b.Size {
			return &ValidationError{
				Type:    "Links",
				Message: fmt.Sprintf("header size %d disagrees with snapshot %d", h.Size, b.Size),
				Addr:    b.Addr,
			}
		}
		if mem.Addr(h.Prev) != prev {
			return &ValidationError{
				Type:    "Links",
				Message: fmt.Sprintf("prev link %#x, expected %s", h.Prev, prev),
				Addr:    b.Addr,
				Details: map[string]any{"index": i},
			}
		}
		var next mem.Addr
		if i+1 < len(blocks) {
			next = blocks[i+1].Addr
		}
		if mem.Addr(h.Next) != next {
			return &ValidationError{
				Type:    "Links",
				Message: fmt.Sprintf("next link %#x, expected %s", h.Next, next),
				Addr:    b.Addr,
				Details: map[string]any{"index": i},
			}
		}
		prev = b.Addr
	}
	return nil
}
