// Package verify provides validation functions for the kernel heap free list.
//
// # Overview
//
// The heap's correctness rests on one invariant: walking the free list from
// its sentinel visits blocks in strictly increasing address order with no two
// blocks overlapping. Coalescing only ever compares a block with its list
// neighbour, so a single out-of-order block silently breaks merging and can
// hand the same bytes to two callers. The checks here make that invariant
// observable.
//
// Validation categories:
//   - Ordered: strictly increasing header addresses
//   - NonOverlapping: each block ends at or before the next one starts
//   - Coalesced: no two listed blocks are adjacent in memory
//   - InBounds: every block lies inside the mapped arena
//   - Links: sizes and link words stored in the headers mirror the snapshot
//
// # Quick Start
//
//	blocks, err := h.FreeBlocks()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	if err := verify.AllInvariants(blocks, arena); err != nil {
//	    t.Fatalf("heap corrupted: %v", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // Check that failed (e.g., "Ordered")
//	    Message string         // Human-readable description
//	    Addr    mem.Addr       // Header address involved (0 if N/A)
//	    Details map[string]any // Additional context
//	}
//
// # Performance Characteristics
//
// Every check is a single O(n) pass over the snapshot. Links additionally
// reads one header per block.
//
// # Related Packages
//
//   - github.com/joshuapare/kheapkit/mem/kheap: Produces the free-list snapshots
//   - github.com/joshuapare/kheapkit/internal/format: Header layout
package verify
