package format

import (
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	b := make([]byte, HeaderSize)
	EncodeHeader(b, Header{Size: 4072, Next: 0x1000, Prev: 0x3000})

	h, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Size != 4072 || h.Next != 0x1000 || h.Prev != 0x3000 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h.Footprint() != 4072+HeaderSize {
		t.Fatalf("Footprint=%d", h.Footprint())
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestAllocationTag(t *testing.T) {
	const addr = 0x100000
	b := make([]byte, HeaderSize)
	EncodeHeader(b, Header{Size: 64})
	StampAllocated(b, addr)

	h, _ := DecodeHeader(b)
	if !h.IsAllocated(addr) {
		t.Fatalf("expected tagged header at %#x", addr)
	}
	if h.IsAllocated(addr + BlockAlignment) {
		t.Fatalf("tag must be bound to the header address")
	}
	if h.Size != 64 {
		t.Fatalf("stamping must not touch size, got %d", h.Size)
	}

	ClearTag(b)
	h, _ = DecodeHeader(b)
	if h.IsAllocated(addr) {
		t.Fatalf("tag should be gone after ClearTag")
	}
}
