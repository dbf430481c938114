package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// BenchmarkResult is one parsed benchmark line.
type BenchmarkResult struct {
	Name        string // full name without the -N GOMAXPROCS suffix
	Group       string // top-level benchmark, e.g. AllocFree
	Case        string // sub-benchmark path, e.g. 256B
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// BenchmarkAllocFree/256B-8    10000    12450 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^Benchmark(\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	for scanner.Scan() {
		line := scanner.Text()

		// Lines from `go test -json` carry the text in Output
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := trimProcs(matches[1])
		r := BenchmarkResult{Name: name, Group: name}
		if i := strings.Index(name, "/"); i > 0 {
			r.Group, r.Case = name[:i], name[i+1:]
		}
		r.Iterations, _ = strconv.Atoi(matches[2])
		r.NsPerOp, _ = strconv.ParseFloat(matches[3], 64)
		if matches[4] != "" {
			r.BytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			r.AllocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}
		results = append(results, r)
	}
	return results
}

// trimProcs drops the trailing -N that `go test` appends to benchmark names.
func trimProcs(name string) string {
	i := strings.LastIndex(name, "-")
	if i <= 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

// groupResults keeps the last result per name (later -count runs win) and
// sorts by group then case.
func groupResults(results []BenchmarkResult) []BenchmarkResult {
	byName := make(map[string]BenchmarkResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	out := make([]BenchmarkResult, 0, len(byName))
	for _, r := range byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Case < out[j].Case
	})
	return out
}

func markdownReport(results []BenchmarkResult) string {
	var sb strings.Builder

	sb.WriteString("# Heap Benchmark Report\n\n")
	if len(results) == 0 {
		sb.WriteString("No benchmark results found.\n")
		return sb.String()
	}

	sb.WriteString("| Benchmark | Case | ns/op | B/op | allocs/op |\n")
	sb.WriteString("|-----------|------|-------|------|-----------|\n")
	for _, r := range results {
		c := r.Case
		if c == "" {
			c = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %d |\n",
			r.Group, c, formatNumber(r.NsPerOp), r.BytesPerOp, r.AllocsPerOp)
	}
	return sb.String()
}

func formatNumber(n float64) string {
	switch {
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	}
	return fmt.Sprintf("%.1f", n)
}
