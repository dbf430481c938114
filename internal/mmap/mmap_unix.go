//go:build unix

// Package mmap provides platform-specific helpers for reserving the anonymous
// memory that backs the physical frame arena.
package mmap

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Anon maps size bytes of zeroed, private, read-write memory and returns it
// together with a cleanup function that unmaps it.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}

// Discard hands the pages backing b back to the kernel. Subsequent reads
// observe zeroes. When b does not start and end on page boundaries the bytes
// are cleared in place instead.
func Discard(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	page := unix.Getpagesize()
	if len(b)%page != 0 || !pageAligned(b, page) {
		clear(b)
		return nil
	}
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		clear(b)
		return fmt.Errorf("mmap: madvise: %w", err)
	}
	return nil
}
