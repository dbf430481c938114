package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheapkit/internal/logger"
	"github.com/joshuapare/kheapkit/mem/frame"
	"github.com/joshuapare/kheapkit/mem/kheap"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logDir  string

	// Heap geometry
	frameSize int
	frames    int
	maxGrow   int
)

var rootCmd = &cobra.Command{
	Use:   "kheapctl",
	Short: "Drive and inspect the kernel heap allocator",
	Long: `kheapctl runs the kernel heap allocator over a simulated physical
arena. It replays allocation scripts, stress-tests the heap from many
goroutines, and reports free-list statistics and invariant checks.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and heap logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write JSON logs to this directory instead of stderr")

	rootCmd.PersistentFlags().IntVar(&frameSize, "frame-size", frame.DefaultConfig.FrameSize, "Frame size in bytes (power of two)")
	rootCmd.PersistentFlags().IntVar(&frames, "frames", frame.DefaultConfig.Frames, "Number of frames in the arena")
	rootCmd.PersistentFlags().IntVar(&maxGrow, "max-grow", 0, "Grow attempts per allocation (0 = default)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logger.Init(logger.Options{
		Enabled: verbose || logDir != "",
		LogDir:  logDir,
		Level:   level,
	})
}

// openHeap creates a heap sized by the global flags.
func openHeap() (*kheap.Heap, error) {
	h, err := kheap.Open(
		&frame.Config{FrameSize: frameSize, Frames: frames},
		&kheap.Options{Logger: logger.L, MaxGrowAttempts: maxGrow},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open heap: %w", err)
	}
	printVerbose("Heap ready: %d frames of %d bytes\n", frames, h.FrameSize())
	return h, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
