package format

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + BlockAlignmentMask) & ^BlockAlignmentMask
}

// IsAligned8 reports whether v sits on an 8-byte boundary.
func IsAligned8(v uint64) bool {
	return v&BlockAlignmentMask == 0
}

// FramesFor returns the smallest number of frames of frameSize bytes that
// cover n bytes (ceiling division). frameSize must be positive.
//
// Example (frameSize 4096):
//
//	FramesFor(1)    = 1
//	FramesFor(4096) = 1
//	FramesFor(4097) = 2
func FramesFor(n, frameSize int) int {
	if n <= 0 {
		return 0
	}
	return (n + frameSize - 1) / frameSize
}
