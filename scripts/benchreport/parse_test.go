package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `goos: linux
goarch: amd64
pkg: github.com/joshuapare/kheapkit/mem/kheap
BenchmarkAllocFree/16B-8         	 9563072	       125.4 ns/op	       0 B/op	       0 allocs/op
BenchmarkAllocFree/2048B-8       	 8911234	       131.0 ns/op	       0 B/op	       0 allocs/op
BenchmarkFragmentedScan-8        	   20000	     61234 ns/op
{"Action":"output","Output":"BenchmarkParallelAllocFree-8   1000000   1520 ns/op   0 B/op   0 allocs/op\n"}
PASS
`

func TestParseBenchmarks(t *testing.T) {
	results := parseBenchmarks(bufio.NewScanner(strings.NewReader(sampleOutput)))
	require.Len(t, results, 4)

	assert.Equal(t, BenchmarkResult{
		Name:       "AllocFree/16B",
		Group:      "AllocFree",
		Case:       "16B",
		Iterations: 9563072,
		NsPerOp:    125.4,
	}, results[0])

	assert.Equal(t, "FragmentedScan", results[2].Group)
	assert.Empty(t, results[2].Case)
	assert.InDelta(t, 61234, results[2].NsPerOp, 0.001)

	assert.Equal(t, "ParallelAllocFree", results[3].Name)
}

func TestTrimProcs(t *testing.T) {
	assert.Equal(t, "AllocFree/16B", trimProcs("AllocFree/16B-8"))
	assert.Equal(t, "Alloc-Free", trimProcs("Alloc-Free"))
	assert.Equal(t, "Scan", trimProcs("Scan"))
}

func TestMarkdownReport(t *testing.T) {
	results := groupResults(parseBenchmarks(bufio.NewScanner(strings.NewReader(sampleOutput))))
	report := markdownReport(results)

	assert.Contains(t, report, "| AllocFree | 16B | 125.4 | 0 | 0 |")
	assert.Contains(t, report, "| FragmentedScan | - | 61.23K | 0 | 0 |")
	assert.Less(t,
		strings.Index(report, "AllocFree | 16B"),
		strings.Index(report, "FragmentedScan"))

	assert.Contains(t, markdownReport(nil), "No benchmark results found.")
}
