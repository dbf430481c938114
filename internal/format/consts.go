// Package format houses the in-band block header layout used by the kernel
// heap. Headers live inside frame memory, so everything here works on raw
// byte slices and stays allocation-free.
package format

const (
	// HeaderSize is the size of the block header preceding every heap payload,
	// free or allocated.
	//
	// Layout (little-endian):
	//
	//	0x00  8  usable payload size (header excluded)
	//	0x08  8  next free block (frame-domain address), or AllocTag
	//	0x10  8  prev free block (frame-domain address), or headerAddr^AllocTag
	HeaderSize = 0x18

	// Header field offsets.
	HeaderSizeOffset = 0x00
	HeaderNextOffset = 0x08
	HeaderPrevOffset = 0x10

	// BlockAlignment is the alignment of every header and payload.
	BlockAlignment = 8

	// BlockAlignmentMask is the bitmask used for aligning to 8-byte boundaries.
	BlockAlignmentMask = BlockAlignment - 1

	// DefaultFrameSize is the frame granularity of the frame provider.
	DefaultFrameSize = 0x1000

	// AllocTag marks the link words of an allocated block. Its high bits lie
	// outside any canonical physical address, so it can never collide with a
	// real free-list link.
	AllocTag uint64 = 0xA110_C8ED_B10C_0000

	// DefaultOffset is the higher-half direct-map base added to frame-domain
	// addresses before they are handed to callers.
	DefaultOffset uint64 = 0xFFFF_8000_0000_0000
)
