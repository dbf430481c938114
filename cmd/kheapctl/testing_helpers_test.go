package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/mem/frame"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// writeScript stores a script in a temp file and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// resetFlags restores every global flag to its default after the test.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose, quiet, jsonOut, logDir = false, false, false, ""
		frameSize, frames, maxGrow = frame.DefaultConfig.FrameSize, frame.DefaultConfig.Frames, 0
		runKeepGoing, runCheckEach = false, false
		stressWorkers, stressOps, stressMaxSize, stressMaxLive, stressSeed = 8, 10000, 2048, 64, 1
	})
}

// decodeJSON unmarshals output into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}
