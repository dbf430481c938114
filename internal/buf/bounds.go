package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false when
// the result would overflow int or either operand is negative.
// Used for count * frameSize calculations.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// AddU64OverflowSafe adds two addresses, returning ok = false on wraparound.
func AddU64OverflowSafe(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// CheckSpan validates that n bytes starting at offset fit in a buffer of
// bufLen bytes. Returns the end offset if valid, or an error describing the
// specific failure (overflow or out of bounds).
//
//	end, err := buf.CheckSpan(len(data), off, n)
//	if err != nil {
//	    return fmt.Errorf("header: %w", err)
//	}
func CheckSpan(bufLen, offset, n int) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative offset: %d", offset)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	end, ok := AddOverflowSafe(offset, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", offset, n)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
// The result has its capacity clipped to n so appends cannot spill into
// neighbouring memory.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}
