// Package mem models the physical address space the kernel heap runs on.
//
// # Overview
//
// An Arena is one contiguous span of anonymous memory reserved from the
// operating system. Every byte in it has a frame-domain address (Addr): the
// arena base plus the byte offset. Addresses are plain integers; the only way
// to touch the bytes behind them is Arena.Slice, which bounds-checks every
// access. That keeps the raw address arithmetic the allocator needs behind a
// single audited boundary.
//
// # Address Zero
//
// Address 0 is never part of an arena. The heap uses it as the address of its
// free-list sentinel.
//
// # Related Packages
//
//   - github.com/joshuapare/kheapkit/mem/frame: Frame provider carving the arena into frames
//   - github.com/joshuapare/kheapkit/mem/kheap: Kernel heap allocator
//   - github.com/joshuapare/kheapkit/mem/verify: Free-list invariant checks
package mem
