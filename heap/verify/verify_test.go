package verify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

type blockSpec struct {
	size      int
	allocated bool
}

// buildArena lays out padding, prologue, the given blocks and an epilogue, and
// threads every free block onto a free list in address order. It returns the
// arena, the free-list head and the payload offsets of the blocks.
func buildArena(t *testing.T, blocks ...blockSpec) ([]byte, uint64, []int) {
	t.Helper()

	total := format.InitialSize
	for _, b := range blocks {
		total += b.size
	}
	data := make([]byte, total)
	format.SetBlock(data, format.PrologueOffset, format.MinBlockSize, true)

	offs := make([]int, 0, len(blocks))
	bp := format.PrologueOffset + format.MinBlockSize
	var head, prev uint64
	for _, b := range blocks {
		format.SetBlock(data, bp, b.size, b.allocated)
		offs = append(offs, bp)
		if !b.allocated {
			format.SetPrevFree(data, bp, prev)
			format.SetNextFree(data, bp, 0)
			if prev == 0 {
				head = uint64(bp)
			} else {
				format.SetNextFree(data, int(prev), uint64(bp))
			}
			prev = uint64(bp)
		}
		bp += b.size
	}
	format.PutTag(data, format.HeaderOff(bp), format.Pack(0, true))
	require.Equal(t, total, bp)
	return data, head, offs
}

func requireViolation(t *testing.T, r *Report, typ, contains string) {
	t.Helper()
	for _, e := range r.Errors {
		if e.Type == typ && strings.Contains(e.Message, contains) {
			return
		}
	}
	t.Fatalf("expected %s violation containing %q, got %v", typ, contains, r.Errors)
}

func TestHeap_CleanArena(t *testing.T) {
	data, head, offs := buildArena(t,
		blockSpec{64, true},
		blockSpec{96, false},
		blockSpec{32, true},
		blockSpec{128, false},
	)

	r := Heap(data, format.PrologueOffset, head)
	require.True(t, r.OK(), "unexpected violations: %v", r.Errors)
	require.NoError(t, r.Err())

	assert.Len(t, r.Blocks, 5, "prologue plus four blocks")
	assert.Equal(t, 2, r.FreeBlocks)
	assert.Equal(t, 2, r.FreeListed)
	assert.Equal(t, len(data)-format.WordSize, r.Epilogue)
	assert.Equal(t, offs[0], r.Blocks[1].Offset)
	assert.Empty(t, r.Format(false), "clean non-verbose report renders nothing")
}

func TestHeap_EmptyHeap(t *testing.T) {
	data, head, _ := buildArena(t)
	r := Heap(data, format.PrologueOffset, head)
	require.True(t, r.OK(), "%v", r.Errors)
	assert.Len(t, r.Blocks, 1)
}

func TestHeap_HeaderFooterMismatch(t *testing.T) {
	data, head, offs := buildArena(t, blockSpec{64, true}, blockSpec{64, false})
	format.PutTag(data, offs[0]+64-format.DoubleWordSize, format.Pack(64, false))

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeBlock, "header does not match footer")
}

func TestHeap_AdjacentFreeBlocks(t *testing.T) {
	data, head, offs := buildArena(t, blockSpec{64, false}, blockSpec{64, false}, blockSpec{32, true})

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeCoalesce, "not coalesced")
	assert.Equal(t, offs[1], r.Errors[0].Offset)
}

func TestHeap_FreeBlockMissingFromList(t *testing.T) {
	data, _, offs := buildArena(t, blockSpec{64, true}, blockSpec{64, false}, blockSpec{32, true})

	r := Heap(data, format.PrologueOffset, 0)
	requireViolation(t, r, TypeFreeList, "missing from the free list")
	assert.Equal(t, offs[1], r.Errors[0].Offset)
}

func TestHeap_AllocatedBlockOnList(t *testing.T) {
	data, _, offs := buildArena(t, blockSpec{64, true}, blockSpec{64, false})
	format.SetPrevFree(data, offs[0], 0)
	format.SetNextFree(data, offs[0], 0)

	r := Heap(data, format.PrologueOffset, uint64(offs[0]))
	requireViolation(t, r, TypeFreeList, "allocated block is on the free list")
	requireViolation(t, r, TypeFreeList, "missing from the free list")
}

func TestHeap_FreeListCycle(t *testing.T) {
	data, head, offs := buildArena(t, blockSpec{64, false}, blockSpec{32, true}, blockSpec{64, false})
	format.SetNextFree(data, offs[2], uint64(offs[0]))

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeFreeList, "cycle")
}

func TestHeap_BrokenBackLink(t *testing.T) {
	data, head, offs := buildArena(t, blockSpec{64, false}, blockSpec{32, true}, blockSpec{64, false})
	format.SetPrevFree(data, offs[2], 0)

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeFreeList, "prev link")
}

func TestHeap_ListEntryOutsideArena(t *testing.T) {
	data, _, _ := buildArena(t, blockSpec{64, true})

	r := Heap(data, format.PrologueOffset, 1<<40)
	requireViolation(t, r, TypeFreeList, "outside the arena")
}

func TestHeap_BadPrologue(t *testing.T) {
	data, head, _ := buildArena(t, blockSpec{64, true})
	format.SetBlock(data, format.PrologueOffset, format.MinBlockSize, false)

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypePrologue, "Bad prologue header")
}

func TestHeap_BadEpilogue(t *testing.T) {
	data, head, _ := buildArena(t, blockSpec{64, true})
	format.PutTag(data, len(data)-format.WordSize, format.Pack(0, false))

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeEpilogue, "Bad epilogue header")
}

func TestHeap_EpilogueNotAtArenaEnd(t *testing.T) {
	data, head, _ := buildArena(t, blockSpec{64, true})
	data = append(data, make([]byte, 16)...)

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeEpilogue, "arena ends")
}

func TestHeap_BlockPastArenaEnd(t *testing.T) {
	data, head, offs := buildArena(t, blockSpec{64, true})
	format.PutTag(data, format.HeaderOff(offs[0]), format.Pack(4096, true))

	r := Heap(data, format.PrologueOffset, head)
	requireViolation(t, r, TypeBlock, "extends past")
	assert.Equal(t, -1, r.Epilogue)
}

func TestHeap_TooSmallArena(t *testing.T) {
	r := Heap(make([]byte, 16), format.PrologueOffset, 0)
	requireViolation(t, r, TypePrologue, "cannot hold a prologue")
}

func TestReport_FormatVerboseIsDeterministic(t *testing.T) {
	data, head, _ := buildArena(t, blockSpec{64, true}, blockSpec{96, false})

	first := Heap(data, format.PrologueOffset, head).Format(true)
	second := Heap(data, format.PrologueOffset, head).Format(true)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "Heap (0x10):")
	assert.Contains(t, first, "0x10: header: [32:a] footer: [32:a]")
	assert.Contains(t, first, "0x30: header: [64:a] footer: [64:a]")
	assert.Contains(t, first, "0x70: header: [96:f] footer: [96:f]")
	assert.Contains(t, first, "EOL")
	assert.NotContains(t, first, "Error:")
}

func TestReport_ErrWrapsFirstViolation(t *testing.T) {
	data, head, _ := buildArena(t, blockSpec{64, false}, blockSpec{64, false})

	r := Heap(data, format.PrologueOffset, head)
	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violation(s)")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, TypeCoalesce, verr.Type)
	assert.Contains(t, r.Format(false), "Error: Coalesce")
}

func TestBlocks_IgnoresFreeList(t *testing.T) {
	data, _, _ := buildArena(t, blockSpec{64, true}, blockSpec{96, false}, blockSpec{32, true})

	r := Blocks(data, format.PrologueOffset)
	require.True(t, r.OK(), "%v", r.Errors)
	assert.Equal(t, 1, r.FreeBlocks)
	assert.Zero(t, r.FreeListed)
	assert.Len(t, r.Blocks, 4)
}

func TestBlocks_ReportsPhysicalViolations(t *testing.T) {
	data, _, _ := buildArena(t, blockSpec{64, false}, blockSpec{64, false})
	requireViolation(t, Blocks(data, format.PrologueOffset), TypeCoalesce, "not coalesced")

	requireViolation(t, Blocks(make([]byte, 8), format.PrologueOffset), TypePrologue, "cannot hold a prologue")
}

func TestHeap_ZeroedArena(t *testing.T) {
	r := Heap(make([]byte, 64), format.PrologueOffset, 0)
	requireViolation(t, r, TypePrologue, "Bad prologue header [0:f]")
	assert.Equal(t, -1, r.Epilogue)
}

func TestHeap_HugeBlockSize(t *testing.T) {
	data, _, offs := buildArena(t,
		blockSpec{64, true},
		blockSpec{96, true},
	)
	format.PutTag(data, format.HeaderOff(offs[0]), format.Pack(0x7FFFFFFFFFFFFFF0, true))

	var r *Report
	require.NotPanics(t, func() { r = Heap(data, format.PrologueOffset, 0) })
	requireViolation(t, r, TypeBlock, "extends past the arena end")
	assert.Equal(t, -1, r.Epilogue)

	require.NotPanics(t, func() { r = Blocks(data, format.PrologueOffset) })
	requireViolation(t, r, TypeBlock, "extends past the arena end")
	assert.Contains(t, r.Format(true), "Error: ")
}
