// Package verify walks a heap arena and reports structural violations of the
// boundary-tag layout and the explicit free list. It never modifies the arena.
package verify

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Violation categories.
const (
	TypePrologue = "Prologue"
	TypeEpilogue = "Epilogue"
	TypeBlock    = "Block"
	TypeCoalesce = "Coalesce"
	TypeFreeList = "FreeList"
)

// ValidationError describes one violated invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int // payload offset of the offending block, -1 if N/A
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Block is one physical block seen during the walk.
type Block struct {
	Offset    int // payload offset
	Size      int
	Allocated bool
	Header    uint64
	Footer    uint64
}

// Report is the result of a heap walk.
type Report struct {
	Prologue   int
	Epilogue   int // header offset of the epilogue, -1 when the walk never reached it
	Blocks     []Block
	FreeBlocks int // blocks marked free in their header
	FreeListed int // entries reachable from the free-list head
	Errors     []*ValidationError
}

func (r *Report) add(typ string, off int, msg string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{
		Type:    typ,
		Message: fmt.Sprintf(msg, args...),
		Offset:  off,
	})
}

// OK reports whether no violations were found.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Err returns nil for a clean heap, otherwise the first violation annotated
// with the total count.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return errors.Wrapf(r.Errors[0], "heap check: %d violation(s)", len(r.Errors))
}

// Heap validates the arena data. prologue is the payload offset of the prologue
// block and freeHead the payload offset of the first free-list entry (0 if empty).
func Heap(data []byte, prologue int, freeHead uint64) *Report {
	r := &Report{Prologue: prologue, Epilogue: -1}

	if !buf.Has(data, format.HeaderOff(prologue), format.MinBlockSize) {
		r.add(TypePrologue, -1, "arena of %d bytes cannot hold a prologue at 0x%X", len(data), prologue)
		return r
	}

	free := walkBlocks(r, data, prologue)
	walkFreeList(r, data, prologue, freeHead, free)
	return r
}

// Blocks runs only the physical walk. It serves arena images that do not
// record a free-list head; FreeListed stays zero.
func Blocks(data []byte, prologue int) *Report {
	r := &Report{Prologue: prologue, Epilogue: -1}

	if !buf.Has(data, format.HeaderOff(prologue), format.MinBlockSize) {
		r.add(TypePrologue, -1, "arena of %d bytes cannot hold a prologue at 0x%X", len(data), prologue)
		return r
	}

	walkBlocks(r, data, prologue)
	return r
}

// walkBlocks visits physical blocks from the prologue to the epilogue and
// returns the set of payload offsets whose headers are marked free.
func walkBlocks(r *Report, data []byte, prologue int) map[int]bool {
	free := make(map[int]bool)
	prevFree := false

	for bp := prologue; ; {
		hdr := format.HeaderOff(bp)
		if !buf.Has(data, hdr, format.WordSize) {
			r.add(TypeEpilogue, -1, "walk ran off the arena at 0x%X without an epilogue", hdr)
			return free
		}

		tag := format.ReadTag(data, hdr)
		size := int(format.TagSize(tag))
		allocated := format.TagAllocated(tag)

		if bp == prologue && (size != format.MinBlockSize || !allocated) {
			r.add(TypePrologue, bp, "Bad prologue header [%d:%s]", size, allocChar(allocated))
			if size == 0 {
				return free
			}
		}

		if size == 0 {
			r.Epilogue = hdr
			if !allocated {
				r.add(TypeEpilogue, bp, "Bad epilogue header")
			}
			if hdr+format.WordSize != len(data) {
				r.add(TypeEpilogue, bp, "epilogue ends at 0x%X but the arena ends at 0x%X", hdr+format.WordSize, len(data))
			}
			return free
		}

		if !format.IsAligned(bp) {
			r.add(TypeBlock, bp, "payload is not %d-byte aligned", format.Alignment)
		}
		if size < format.MinBlockSize {
			r.add(TypeBlock, bp, "size %d below minimum block size %d", size, format.MinBlockSize)
			return free
		}
		if size > len(data)-hdr-format.WordSize {
			r.add(TypeBlock, bp, "block of %d bytes extends past the arena end 0x%X", size, len(data))
			return free
		}

		footer := format.ReadTag(data, bp+size-format.DoubleWordSize)
		if footer != tag {
			r.add(TypeBlock, bp, "header does not match footer")
		}

		if !allocated {
			if prevFree {
				r.add(TypeCoalesce, bp, "adjacent free blocks were not coalesced")
			}
			free[bp] = true
			r.FreeBlocks++
		}
		prevFree = !allocated

		r.Blocks = append(r.Blocks, Block{
			Offset:    bp,
			Size:      size,
			Allocated: allocated,
			Header:    tag,
			Footer:    footer,
		})
		bp += size
	}
}

// walkFreeList follows next links from head and cross-checks them against the
// physical free set.
func walkFreeList(r *Report, data []byte, prologue int, head uint64, free map[int]bool) {
	seen := make(map[int]bool, len(free))
	firstReal := prologue + format.MinBlockSize
	var prev uint64

	for cur := head; cur != 0; {
		bp := int(cur)
		if cur > uint64(len(data)) || bp < firstReal || !format.IsAligned(bp) ||
			!buf.Has(data, format.HeaderOff(bp), format.MinBlockSize) {
			r.add(TypeFreeList, -1, "free-list entry 0x%X is outside the arena", cur)
			break
		}
		if seen[bp] {
			r.add(TypeFreeList, bp, "free list revisits this block (cycle)")
			break
		}
		if !free[bp] {
			if format.BlockAllocated(data, bp) {
				r.add(TypeFreeList, bp, "allocated block is on the free list")
			} else {
				r.add(TypeFreeList, bp, "free-list entry is not a block in the physical walk")
			}
		}
		if got := format.PrevFree(data, bp); got != prev {
			r.add(TypeFreeList, bp, "prev link is 0x%X, expected 0x%X", got, prev)
		}

		seen[bp] = true
		r.FreeListed++
		prev = cur
		cur = format.NextFree(data, bp)
	}

	for _, b := range r.Blocks {
		if !b.Allocated && !seen[b.Offset] {
			r.add(TypeFreeList, b.Offset, "free block is missing from the free list")
		}
	}
}

// Format renders the report the way a heap dump reads. In verbose mode every
// block is listed; otherwise only violations are. A clean, non-verbose report
// renders as the empty string.
func (r *Report) Format(verbose bool) string {
	var sb strings.Builder
	if verbose {
		fmt.Fprintf(&sb, "Heap (0x%X):\n", r.Prologue)
		for _, b := range r.Blocks {
			fmt.Fprintf(&sb, "0x%X: header: [%d:%s] footer: [%d:%s]\n",
				b.Offset,
				b.Size, allocChar(b.Allocated),
				format.TagSize(b.Footer), allocChar(format.TagAllocated(b.Footer)))
		}
		if r.Epilogue >= 0 {
			fmt.Fprintf(&sb, "0x%X: EOL\n", r.Epilogue+format.WordSize)
		}
		fmt.Fprintf(&sb, "free blocks: %d, free-list entries: %d\n", r.FreeBlocks, r.FreeListed)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "Error: %s\n", e.Error())
	}
	return sb.String()
}

func allocChar(allocated bool) string {
	if allocated {
		return "a"
	}
	return "f"
}
