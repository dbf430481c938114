// Package frame implements the frame provider the kernel heap grows from.
//
// # Overview
//
// An Allocator carves a mem.Arena into fixed-size, frame-aligned frames and
// tracks them with one bit per frame. RequestFrames returns the lowest run of
// contiguous free frames (first fit), ReleaseFrames clears the bits and hands
// the pages back to the operating system.
//
// # Usage Example
//
//	fa, err := frame.New(&frame.Config{Frames: 64})
//	if err != nil {
//	    return err
//	}
//	defer fa.Close()
//
//	addr, err := fa.RequestFrames(2) // two contiguous 4 KiB frames
//	if err != nil {
//	    return err // frame.ErrExhausted under memory pressure
//	}
//	_ = fa.ReleaseFrames(addr, 2)
//
// # Thread Safety
//
// Allocator methods are safe for concurrent use; a single mutex guards the
// bitmap. Callers holding their own locks should release them before calling
// in, since the allocator never calls back out.
package frame
