//go:build !unix

// Package mmap provides platform-specific helpers for reserving the anonymous
// memory that backs the physical frame arena.
package mmap

import "fmt"

// Anon allocates size zeroed bytes from the Go heap when mmap is not available.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// Discard zeroes b in place.
func Discard(b []byte) error {
	clear(b)
	return nil
}
