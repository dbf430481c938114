package kheap

import (
	"log/slog"
	"os"

	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/internal/logger"
)

// Runtime debug flag for per-operation logging - controlled by KHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("KHEAP_LOG_ALLOC") != ""

// defaultMaxGrowAttempts bounds the grow-and-retry loop in Alloc. One grow is
// enough for a single caller; the second covers a racing caller taking the
// fresh block between unlock and rescan.
const defaultMaxGrowAttempts = 2

// Options configures a Heap. The zero value selects every default.
type Options struct {
	// Logger receives the readiness line and, with KHEAP_LOG_ALLOC set,
	// per-operation traces. Default: logger.L.
	Logger *slog.Logger

	// Offset is the translation offset between frame-domain addresses and
	// the pointers handed to callers. Default: format.DefaultOffset.
	Offset uint64

	// MaxGrowAttempts bounds how many times one Alloc may grow the heap
	// before reporting ErrOutOfMemory. Default: 2.
	MaxGrowAttempts int
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Logger == nil {
		out.Logger = logger.L
	}
	if out.Offset == 0 {
		out.Offset = format.DefaultOffset
	}
	if out.MaxGrowAttempts <= 0 {
		out.MaxGrowAttempts = defaultMaxGrowAttempts
	}
	return out
}
