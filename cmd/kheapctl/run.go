package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kheapkit/internal/logger"
)

var (
	runKeepGoing bool
	runCheckEach bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVarP(&runKeepGoing, "keep-going", "k", false, "Continue after a failing line")
	cmd.Flags().BoolVar(&runCheckEach, "check-each", false, "Verify heap invariants after every line")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay an allocation script",
		Long: `The run command replays a line-oriented allocation script against a
fresh heap. Use "-" to read the script from stdin.

Commands:
  alloc   <name> <size>   allocate and name a block
  calloc  <name> <size>   allocate zeroed
  realloc <name> <size>   move a named block (size 0 frees it)
  free    <name>          release a named block
  fill    <name> <byte>   set every usable byte of a block
  expect  <name> <byte>   fail unless every usable byte matches
  check                   verify free-list invariants
  stats                   print heap statistics
  blocks                  print the free list

Example:
  kheapctl run scenario.txt
  kheapctl run --frames 16 --check-each scenario.txt
  echo "alloc a 64" | kheapctl run - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.InOrStdin(), args)
		},
	}
	return cmd
}

// runReport is the JSON form of a script run.
type runReport struct {
	Results []opResult `json:"results"`
	Failed  int        `json:"failed"`
	Live    []string   `json:"live"`
	Stats   statsView  `json:"stats"`
}

func runScript(stdin io.Reader, args []string) error {
	path := args[0]

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	ops, err := parseScript(r)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations from %s\n", len(ops), path)

	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	s := newSession(h, os.Stdout)
	report := runReport{Results: make([]opResult, 0, len(ops))}

	var firstErr error
	for _, op := range ops {
		res := s.exec(op)
		if res.Error == "" && runCheckEach {
			if err := h.Check(); err != nil {
				res.Error = err.Error()
			}
		}
		report.Results = append(report.Results, res)

		if res.Error != "" {
			report.Failed++
			logger.Warn("script line failed", "line", op.Line, "op", res.Op, "error", res.Error)
			if firstErr == nil {
				firstErr = fmt.Errorf("line %d (%s): %s", op.Line, res.Op, res.Error)
			}
			if !jsonOut {
				printError("line %d: %s: %s\n", op.Line, res.Op, res.Error)
			}
			if !runKeepGoing {
				break
			}
			continue
		}
		if !jsonOut {
			printResult(res)
		}
	}

	report.Live = s.live()
	report.Stats = newStatsView(h.Stats())

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInfo("\n%d operation(s), %d failed, %d live allocation(s)\n",
			len(report.Results), report.Failed, len(report.Live))
	}

	if firstErr != nil && !runKeepGoing {
		return firstErr
	}
	return nil
}

func printResult(res opResult) {
	if res.Ptr == "" {
		printVerbose("%4d  %s\n", res.Line, res.Op)
		return
	}
	printInfo("%4d  %-24s -> %s (usable %d)\n", res.Line, res.Op, res.Ptr, res.Size)
}
