package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	cmd := newStatsCmd()
	addHeapFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Replay a trace and show allocator counters",
		Long: `The stats command replays a trace and prints the allocator's counters:
fit hits and misses, heap growth, splits, coalescing by case and the
current shape of the heap.

Example:
  heapctl stats testdata/short1.rep
  heapctl stats testdata/short1.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args)
		},
	}
	return cmd
}

func runStats(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	if _, err := s.replay(ctx, args[0]); err != nil {
		_ = s.close(ctx)
		return err
	}
	st := s.a.Stats()
	if err := s.close(ctx); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(st)
	}
	printStats(args[0], st)
	return nil
}

func printStats(name string, st alloc.Stats) {
	printInfo("\nAllocator Statistics: %s\n", name)
	printInfo("%s\n\n", strings.Repeat("=", 40))

	printInfo("Calls:\n")
	printInfo("  Alloc: %s\n", formatNumber(st.AllocCalls))
	printInfo("  Free: %s\n", formatNumber(st.FreeCalls))
	printInfo("  Realloc: %s (%s in place, %s relocated)\n\n",
		formatNumber(st.ReallocCalls), formatNumber(st.ReallocInPlace), formatNumber(st.ReallocRelocations))

	printInfo("Placement:\n")
	printInfo("  Fit hits: %s\n", formatNumber(st.FitHits))
	printInfo("  Fit misses: %s\n", formatNumber(st.FitMisses))
	printInfo("  Blocks scanned: %s\n", formatNumber(st.FitScanned))
	printInfo("  Splits: %s\n\n", formatNumber(st.Splits))

	printInfo("Coalescing:\n")
	printInfo("  None: %s\n", formatNumber(st.CoalesceNone))
	printInfo("  Next: %s\n", formatNumber(st.CoalesceNext))
	printInfo("  Prev: %s\n", formatNumber(st.CoalescePrev))
	printInfo("  Both: %s\n\n", formatNumber(st.CoalesceBoth))

	printInfo("Heap:\n")
	printInfo("  Size: %s (%s bytes)\n", formatBytes(int64(st.HeapSize)), formatNumber(st.HeapSize))
	printInfo("  Grown: %s times, %s bytes\n", formatNumber(st.GrowCalls), formatNumber(st.GrowBytes))
	printInfo("  Allocated: %s blocks, %s bytes\n", formatNumber(st.AllocatedBlocks), formatNumber(st.AllocatedBytes))
	printInfo("  Free: %s blocks, %s bytes (largest %s)\n",
		formatNumber(st.FreeBlocks), formatNumber(st.FreeBytes), formatNumber(st.LargestFree))
}
