package main

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	cmd := newReplayCmd()
	addHeapFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay traces and report utilization",
		Long: `The replay command runs each trace against a fresh heap, verifying every
block for alignment, bounds, overlap and payload integrity, and reports peak
payload, heap size and utilization.

Example:
  heapctl replay testdata/short1.rep
  heapctl replay traces/*.rep --check
  heapctl replay big.rep --backing /tmp/heap.bin --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return cmd
}

// ReplayReport is the JSON shape of one replayed trace.
type ReplayReport struct {
	Trace       string  `json:"trace"`
	Ops         int     `json:"ops"`
	Allocs      int     `json:"allocs"`
	Frees       int     `json:"frees"`
	Reallocs    int     `json:"reallocs"`
	PeakPayload int     `json:"peak_payload"`
	HeapSize    int     `json:"heap_size"`
	Utilization float64 `json:"utilization"`
	GrowCalls   int     `json:"grow_calls"`
}

func runReplay(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reports := make([]ReplayReport, 0, len(args))
	for _, path := range args {
		r, err := replayOne(ctx, path)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	if jsonOut {
		return printJSON(reports)
	}

	printInfo("%-28s %10s %14s %14s %7s\n", "trace", "ops", "peak payload", "heap size", "util")
	var total float64
	for _, r := range reports {
		printInfo("%-28s %10s %14s %14s %6.1f%%\n",
			r.Trace, formatNumber(r.Ops), formatNumber(r.PeakPayload), formatNumber(r.HeapSize), r.Utilization*100)
		total += r.Utilization
	}
	if len(reports) > 1 {
		printInfo("average utilization: %.1f%%\n", total*100/float64(len(reports)))
	}
	return nil
}

func replayOne(ctx context.Context, path string) (ReplayReport, error) {
	s, err := openSession()
	if err != nil {
		return ReplayReport{}, err
	}

	res, err := s.replay(ctx, path)
	if err != nil {
		_ = s.close(ctx)
		return ReplayReport{}, err
	}
	grows := s.a.Stats().GrowCalls
	if err := s.close(ctx); err != nil {
		return ReplayReport{}, err
	}

	return ReplayReport{
		Trace:       path,
		Ops:         res.Ops,
		Allocs:      res.Allocs,
		Frees:       res.Frees,
		Reallocs:    res.Reallocs,
		PeakPayload: res.PeakPayload,
		HeapSize:    res.HeapSize,
		Utilization: res.Utilization(),
		GrowCalls:   grows,
	}, nil
}
