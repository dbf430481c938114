package kheap

import (
	"fmt"
	"testing"
)

func BenchmarkAllocFree(b *testing.B) {
	for _, size := range []int{16, 256, 2048} {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			h, _ := newTestHeap(b, 64)
			b.ReportAllocs()
			for b.Loop() {
				p, _, err := h.Alloc(size)
				if err != nil {
					b.Fatal(err)
				}
				if err := h.Free(p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFragmentedScan measures first fit behind a long list of holes
// too small for the request.
func BenchmarkFragmentedScan(b *testing.B) {
	h, _ := newTestHeap(b, 256)

	var ptrs []Ptr
	for range 2000 {
		p, _, err := h.Alloc(32)
		if err != nil {
			b.Fatal(err)
		}
		ptrs = append(ptrs, p)
	}
	for i := 0; i < len(ptrs); i += 2 {
		if err := h.Free(ptrs[i]); err != nil {
			b.Fatal(err)
		}
	}

	for b.Loop() {
		p, _, err := h.Alloc(512)
		if err != nil {
			b.Fatal(err)
		}
		if err := h.Free(p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelAllocFree(b *testing.B) {
	h, _ := newTestHeap(b, 1024)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, _, err := h.Alloc(128)
			if err != nil {
				b.Error(err)
				return
			}
			if err := h.Free(p); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
