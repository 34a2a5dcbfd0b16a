package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func init() {
	cmd := newCheckCmd()
	addHeapFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <trace>",
		Short: "Replay a trace and dump the heap",
		Long: `The check command replays a trace, then walks the resulting heap and
prints every block with its header and footer tags. Any consistency
violation is printed and makes the command fail.

Example:
  heapctl check testdata/short1.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args)
		},
	}
	return cmd
}

// CheckReport is the JSON shape of a heap check.
type CheckReport struct {
	Trace      string   `json:"trace"`
	Blocks     int      `json:"blocks"`
	FreeBlocks int      `json:"free_blocks"`
	Violations []string `json:"violations"`
}

func runCheck(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.close(ctx) }()

	if _, err := s.replay(ctx, args[0]); err != nil {
		return err
	}

	report := s.a.Report()
	if jsonOut {
		out := CheckReport{
			Trace:      args[0],
			Blocks:     len(report.Blocks),
			FreeBlocks: report.FreeBlocks,
			Violations: make([]string, 0, len(report.Errors)),
		}
		for _, e := range report.Errors {
			out.Violations = append(out.Violations, e.Error())
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		printInfo("%s", report.Format(true))
	}

	if !report.OK() {
		return errors.Newf("heap check found %d violation(s)", len(report.Errors))
	}
	return nil
}
