package frame

import (
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/mem"
)

// Config describes the physical memory handed to a frame allocator.
type Config struct {
	// FrameSize is the frame granularity in bytes. Must be a power of two
	// no smaller than MinFrameSize. Default 4096.
	FrameSize int

	// Frames is the number of frames in the arena. Default 256 (1 MiB).
	Frames int

	// Base is the frame-domain address of frame 0. Must be non-zero and
	// frame-aligned. Default mem.DefaultBase.
	Base mem.Addr
}

// MinFrameSize keeps room for a few block headers per frame.
const MinFrameSize = 8 * format.HeaderSize

// DefaultConfig is used when New receives nil.
var DefaultConfig = Config{
	FrameSize: format.DefaultFrameSize,
	Frames:    256,
	Base:      mem.DefaultBase,
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.FrameSize == 0 {
		c.FrameSize = DefaultConfig.FrameSize
	}
	if c.Frames == 0 {
		c.Frames = DefaultConfig.Frames
	}
	if c.Base == 0 {
		c.Base = DefaultConfig.Base
	}
	return c
}

func validFrameSize(n int) bool {
	return n >= MinFrameSize && n&(n-1) == 0
}
