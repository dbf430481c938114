package format

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/buf"
)

// Header is the decoded form of a block header.
type Header struct {
	Size uint64 // Usable payload bytes
	Next uint64 // Next link word
	Prev uint64 // Prev link word
}

// DecodeHeader decodes the header at the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	return Header{
		Size: buf.U64LE(b[HeaderSizeOffset:]),
		Next: buf.U64LE(b[HeaderNextOffset:]),
		Prev: buf.U64LE(b[HeaderPrevOffset:]),
	}, nil
}

// EncodeHeader writes h to the start of b. The caller must ensure
// len(b) >= HeaderSize.
func EncodeHeader(b []byte, h Header) {
	PutU64(b, HeaderSizeOffset, h.Size)
	PutU64(b, HeaderNextOffset, h.Next)
	PutU64(b, HeaderPrevOffset, h.Prev)
}

// StampAllocated writes the allocation tag into the link words of the header
// located at addr.
func StampAllocated(b []byte, addr uint64) {
	PutU64(b, HeaderNextOffset, AllocTag)
	PutU64(b, HeaderPrevOffset, addr^AllocTag)
}

// ClearTag zeroes both link words.
func ClearTag(b []byte) {
	PutU64(b, HeaderNextOffset, 0)
	PutU64(b, HeaderPrevOffset, 0)
}

// IsAllocated reports whether the header at addr carries a valid allocation tag.
func (h Header) IsAllocated(addr uint64) bool {
	return h.Next == AllocTag && h.Prev == addr^AllocTag
}

// Footprint returns the total bytes covered by the block, header included.
func (h Header) Footprint() uint64 {
	return h.Size + HeaderSize
}
