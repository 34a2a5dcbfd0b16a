package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/provider"
	"github.com/joshuapare/heapkit/heap/trace"
)

// Heap flags shared by replay, check and stats.
var (
	heapChunk    int
	heapCapacity int
	heapBacking  string
	heapCheck    bool
)

func addHeapFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&heapChunk, "chunk", alloc.DefaultConfig.ChunkSize, "Minimum heap extension in bytes")
	cmd.Flags().IntVar(&heapCapacity, "capacity", provider.DefaultCapacity, "Arena capacity in bytes")
	cmd.Flags().StringVar(&heapBacking, "backing", "", "Back the arena with this file and flush dirty pages at the end")
	cmd.Flags().BoolVar(&heapCheck, "check", false, "Run the full heap check after every operation")
}

// session is one allocator plus its provider for a single trace.
type session struct {
	a       *alloc.Allocator
	file    *provider.File
	tracker *dirty.Tracker
}

func openSession() (*session, error) {
	s := &session{}

	var p provider.Provider
	if heapBacking != "" {
		f, err := provider.OpenFile(heapBacking, heapCapacity)
		if err != nil {
			return nil, err
		}
		s.file = f
		s.tracker = dirty.NewTracker()
		p = f
	} else {
		p = provider.NewMem(heapCapacity)
	}

	var dt alloc.DirtyTracker
	if s.tracker != nil {
		dt = s.tracker
	}
	a, err := alloc.New(p, dt, &alloc.Config{ChunkSize: heapChunk})
	if err != nil {
		_ = s.close(context.Background())
		return nil, err
	}
	if err := a.Init(); err != nil {
		_ = s.close(context.Background())
		return nil, errors.Wrap(err, "initialize heap")
	}
	s.a = a
	return s, nil
}

// replay parses and replays one trace file.
func (s *session) replay(ctx context.Context, path string) (*trace.Result, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return nil, err
	}
	printVerbose("Replaying %s (%d ops, %d ids)\n", path, len(tr.Ops), tr.NumIDs)
	return trace.Replay(ctx, tr, s.a, trace.Options{CheckEach: heapCheck})
}

// close flushes dirty pages to the backing file, if any, and closes it.
func (s *session) close(ctx context.Context) error {
	if s.file == nil {
		return nil
	}
	n := s.tracker.Len()
	flushErr := s.tracker.Flush(ctx, s.file)
	closeErr := s.file.Close()
	s.file = nil
	if flushErr != nil {
		return errors.Wrap(flushErr, "flush dirty pages")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "close backing file")
	}
	printVerbose("Flushed %d dirty range(s) to %s\n", n, heapBacking)
	return nil
}
