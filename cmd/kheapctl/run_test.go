package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScript(t *testing.T) {
	resetFlags(t)
	frames = 4

	path := writeScript(t, `
alloc a 64
alloc b 64
fill a 0x11
expect a 0x11
free a
free b
check
blocks
`)
	output, err := captureOutput(t, func() error {
		return runScript(nil, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "alloc a 64")
	assert.Contains(t, output, "0xffff800000100018")
	assert.Contains(t, output, "free 0x100000 size 4072")
	assert.Contains(t, output, "8 operation(s), 0 failed, 0 live allocation(s)")
}

func TestRunScriptStdin(t *testing.T) {
	resetFlags(t)
	frames = 2

	output, err := captureOutput(t, func() error {
		return runScript(strings.NewReader("alloc x 10\n"), []string{"-"})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "1 live allocation(s)")
}

func TestRunScriptStopsOnError(t *testing.T) {
	resetFlags(t)
	frames = 2

	path := writeScript(t, "alloc a 16\nfree a\nfree a\nalloc b 16\n")
	output, err := captureOutput(t, func() error {
		return runScript(nil, []string{path})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3 (free a)")
	assert.Contains(t, output, "3 operation(s), 1 failed")
}

func TestRunScriptKeepGoing(t *testing.T) {
	resetFlags(t)
	frames = 2
	runKeepGoing = true

	path := writeScript(t, "alloc a 16\nexpect a 1\nalloc big 100000\nalloc b 16\n")
	output, err := captureOutput(t, func() error {
		return runScript(nil, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "4 operation(s), 2 failed, 2 live allocation(s)")
}

func TestRunScriptJSON(t *testing.T) {
	resetFlags(t)
	frames = 4
	jsonOut = true
	runCheckEach = true

	path := writeScript(t, "calloc a 100\nrealloc a 300\nalloc b 8\nfree b\n")
	output, err := captureOutput(t, func() error {
		return runScript(nil, []string{path})
	})
	require.NoError(t, err)

	var report runReport
	decodeJSON(t, output, &report)
	require.Len(t, report.Results, 4)
	assert.Zero(t, report.Failed)
	assert.Equal(t, []string{"a"}, report.Live)
	assert.Equal(t, 104, report.Results[0].Size)
	assert.NotEmpty(t, report.Results[1].Ptr)
	assert.Equal(t, 1, report.Stats.LiveBlocks)
	assert.Equal(t, 1, report.Stats.CallocCalls)
	assert.Equal(t, 1, report.Stats.ReallocCalls)
}

func TestRunScriptMissingFile(t *testing.T) {
	resetFlags(t)
	err := runScript(nil, []string{"/nonexistent/script.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open script")
}
