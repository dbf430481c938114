package main

import "github.com/joshuapare/kheapkit/mem/kheap"

// statsView is the JSON form of kheap.Stats.
type statsView struct {
	AllocCalls      int    `json:"alloc_calls"`
	CallocCalls     int    `json:"calloc_calls"`
	FreeCalls       int    `json:"free_calls"`
	ReallocCalls    int    `json:"realloc_calls"`
	AllocFastPath   int    `json:"alloc_fast_path"`
	AllocSlowPath   int    `json:"alloc_slow_path"`
	Splits          int    `json:"splits"`
	Merges          int    `json:"merges"`
	GrowCalls       int    `json:"grow_calls"`
	GrowFailures    int    `json:"grow_failures"`
	FramesRequested int    `json:"frames_requested"`
	FramesReturned  int    `json:"frames_returned"`
	LiveBlocks      int    `json:"live_blocks"`
	BytesInUse      uint64 `json:"bytes_in_use"`
	FreeBlocks      int    `json:"free_blocks"`
	FreeBytes       uint64 `json:"free_bytes"`
	LargestFree     uint64 `json:"largest_free"`
	ManagedBytes    uint64 `json:"managed_bytes"`
}

func newStatsView(s kheap.Stats) statsView {
	return statsView{
		AllocCalls:      s.AllocCalls,
		CallocCalls:     s.CallocCalls,
		FreeCalls:       s.FreeCalls,
		ReallocCalls:    s.ReallocCalls,
		AllocFastPath:   s.AllocFastPath,
		AllocSlowPath:   s.AllocSlowPath,
		Splits:          s.SplitCount,
		Merges:          s.MergeCount,
		GrowCalls:       s.GrowCalls,
		GrowFailures:    s.GrowFailures,
		FramesRequested: s.FramesRequested,
		FramesReturned:  s.FramesReturned,
		LiveBlocks:      s.LiveBlocks,
		BytesInUse:      s.BytesInUse,
		FreeBlocks:      s.FreeBlocks,
		FreeBytes:       s.FreeBytes,
		LargestFree:     s.LargestFree,
		ManagedBytes:    s.ManagedBytes,
	}
}
