package mmap

import "unsafe"

// pageAligned reports whether the first byte of b sits on a page boundary.
func pageAligned(b []byte, page int) bool {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%uintptr(page) == 0
}
