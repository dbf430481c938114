package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/kheapkit/internal/logger"
	"github.com/joshuapare/kheapkit/mem/kheap"
)

var (
	stressWorkers int
	stressOps     int
	stressMaxSize int
	stressMaxLive int
	stressSeed    uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 8, "Concurrent workers")
	cmd.Flags().IntVarP(&stressOps, "ops", "n", 10000, "Operations per worker")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 2048, "Largest allocation in bytes")
	cmd.Flags().IntVar(&stressMaxLive, "max-live", 64, "Live allocations per worker before it must free")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer one heap from concurrent workers",
		Long: `The stress command runs workers that allocate, reallocate and free
random sizes on a shared heap. Every payload is stamped and checked before it
is released, so a block handed to two owners is caught. The free list is
verified once all workers finish.

Out-of-memory results are counted, not treated as failures.

Example:
  kheapctl stress
  kheapctl stress --workers 16 --ops 50000 --frames 4096
  kheapctl stress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
	return cmd
}

type stressReport struct {
	Workers  int       `json:"workers"`
	Ops      int64     `json:"ops"`
	OOM      int64     `json:"oom"`
	Duration string    `json:"duration"`
	Stats    statsView `json:"stats"`
}

func runStress(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if stressWorkers <= 0 || stressOps <= 0 || stressMaxSize <= 0 || stressMaxLive <= 0 {
		return errors.New("workers, ops, max-size and max-live must be positive")
	}

	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	var ops, oom atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range stressWorkers {
		g.Go(func() error {
			return stressWorker(ctx, h, w, &ops, &oom)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stress failed: %w", err)
	}
	if err := h.Check(); err != nil {
		return fmt.Errorf("heap invalid after stress: %w", err)
	}

	report := stressReport{
		Workers:  stressWorkers,
		Ops:      ops.Load(),
		OOM:      oom.Load(),
		Duration: time.Since(start).Round(time.Millisecond).String(),
		Stats:    newStatsView(h.Stats()),
	}
	logger.Info("stress finished", "workers", report.Workers, "ops", report.Ops, "oom", report.OOM)

	if jsonOut {
		return printJSON(report)
	}
	printInfo("%d workers, %d operations (%d out of memory) in %s\n",
		report.Workers, report.Ops, report.OOM, report.Duration)
	printInfo("Heap verified: %d free blocks, %d free bytes, %d live\n",
		report.Stats.FreeBlocks, report.Stats.FreeBytes, report.Stats.LiveBlocks)
	if verbose {
		h.PrintStats(os.Stdout)
	}
	return nil
}

type stamped struct {
	p    kheap.Ptr
	size int
	tag  byte
}

func stressWorker(ctx context.Context, h *kheap.Heap, w int, ops, oom *atomic.Int64) error {
	rng := rand.New(rand.NewPCG(stressSeed, uint64(w)))
	held := make([]stamped, 0, stressMaxLive)

	release := func(i int) error {
		s := held[i]
		b, err := h.Bytes(s.p)
		if err != nil {
			return fmt.Errorf("worker %d: %w", w, err)
		}
		for j := range s.size {
			if b[j] != s.tag {
				return fmt.Errorf("worker %d: block %#x byte %d is %#x, want %#x", w, uint64(s.p), j, b[j], s.tag)
			}
		}
		if err := h.Free(s.p); err != nil {
			return fmt.Errorf("worker %d: %w", w, err)
		}
		held[i] = held[len(held)-1]
		held = held[:len(held)-1]
		return nil
	}

	for i := range stressOps {
		if i%256 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		ops.Add(1)
		tag := byte(w*31 + i)

		switch r := rng.IntN(10); {
		case len(held) == stressMaxLive || (len(held) > 0 && r < 4):
			if err := release(rng.IntN(len(held))); err != nil {
				return err
			}

		case len(held) > 0 && r < 6:
			j := rng.IntN(len(held))
			size := 1 + rng.IntN(stressMaxSize)
			p, b, err := h.Realloc(held[j].p, size)
			if errors.Is(err, kheap.ErrOutOfMemory) {
				oom.Add(1)
				continue
			}
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			for k := range min(size, held[j].size) {
				if b[k] != held[j].tag {
					return fmt.Errorf("worker %d: realloc lost byte %d of %#x", w, k, uint64(p))
				}
			}
			for k := range b {
				b[k] = tag
			}
			held[j] = stamped{p: p, size: size, tag: tag}

		default:
			size := 1 + rng.IntN(stressMaxSize)
			p, b, err := h.Alloc(size)
			if errors.Is(err, kheap.ErrOutOfMemory) {
				oom.Add(1)
				continue
			}
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			for k := range b {
				b[k] = tag
			}
			held = append(held, stamped{p: p, size: size, tag: tag})
		}
	}

	for len(held) > 0 {
		if err := release(len(held) - 1); err != nil {
			return err
		}
	}
	return nil
}
