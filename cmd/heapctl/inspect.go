package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Dump the blocks of a heap image written with --backing",
		Long: `The inspect command maps a heap image read-only and walks its blocks from
the prologue to the epilogue. Images do not record the free-list head, so
only the physical layout is checked: tags, alignment, coalescing and the
epilogue position.

Example:
  heapctl replay trace.rep --backing heap.img
  heapctl inspect heap.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

// InspectReport is the JSON shape of an image walk.
type InspectReport struct {
	Image      string         `json:"image"`
	Size       int            `json:"size"`
	Blocks     []verify.Block `json:"blocks"`
	FreeBlocks int            `json:"free_blocks"`
	Violations []string       `json:"violations"`
}

func runInspect(args []string) error {
	path := args[0]
	printVerbose("Mapping image: %s\n", path)

	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	report := verify.Blocks(data, format.PrologueOffset)
	if jsonOut {
		out := InspectReport{
			Image:      path,
			Size:       len(data),
			Blocks:     report.Blocks,
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
		printInfo("Image: %s (%s)\n", path, formatBytes(int64(len(data))))
		printInfo("%s", report.Format(true))
	}

	if !report.OK() {
		return errors.Newf("image check found %d violation(s)", len(report.Errors))
	}
	return nil
}
