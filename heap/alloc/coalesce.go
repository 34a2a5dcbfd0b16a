package alloc

import "github.com/joshuapare/heapkit/internal/format"

// coalesce merges the free block bp with any free physical neighbors and
// returns the surviving block. bp must not be on the free list; neighbors that
// are absorbed are removed from it. The caller inserts the result.
//
//	prev   next   result
//	alloc  alloc  bp unchanged
//	alloc  free   bp grows over next
//	free   alloc  prev grows over bp
//	free   free   prev grows over bp and next
func (a *Allocator) coalesce(bp Ref) Ref {
	data := a.p.Bytes()
	b := int(bp)
	size := format.BlockSize(data, b)

	prevAlloc := format.TagAllocated(format.ReadTag(data, format.PrevFooterOff(b)))
	next := format.NextBlock(data, b)
	nextAlloc := format.BlockAllocated(data, next)

	switch {
	case prevAlloc && nextAlloc:
		a.stats.coalesceNone++
		return bp

	case prevAlloc && !nextAlloc:
		a.remove(Ref(next))
		size += format.BlockSize(data, next)
		a.stats.coalesceNext++

	case !prevAlloc && nextAlloc:
		prev := format.PrevBlock(data, b)
		a.remove(Ref(prev))
		size += format.BlockSize(data, prev)
		b = prev
		a.stats.coalescePrev++

	default:
		prev := format.PrevBlock(data, b)
		a.remove(Ref(prev))
		a.remove(Ref(next))
		size += format.BlockSize(data, prev) + format.BlockSize(data, next)
		b = prev
		a.stats.coalesceBoth++
	}

	a.setBlock(b, size, false)
	return Ref(b)
}
