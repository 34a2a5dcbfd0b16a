package alloc

import "github.com/joshuapare/heapkit/internal/format"

// counters are the running totals kept by the allocator.
type counters struct {
	allocCalls, freeCalls, reallocCalls int
	fitHits, fitMisses                  int
	fitScanned                          int64
	growCalls                           int
	growBytes                           int64
	splits                              int
	coalesceNone, coalesceNext          int
	coalescePrev, coalesceBoth          int
	inPlace, relocations                int
}

// Stats describes allocator activity and the current shape of the heap.
// AllocCalls and FreeCalls count caller requests only; a relocating Realloc
// shows up in ReallocCalls and ReallocRelocations.
type Stats struct {
	AllocCalls   int
	FreeCalls    int
	ReallocCalls int

	FitHits    int   // Alloc satisfied from the free list
	FitMisses  int   // Alloc that had to grow the heap
	FitScanned int64 // free blocks visited by first-fit searches

	GrowCalls int
	GrowBytes int64

	Splits int

	CoalesceNone int // freed block had no free neighbor
	CoalesceNext int
	CoalescePrev int
	CoalesceBoth int

	ReallocInPlace     int
	ReallocRelocations int

	HeapSize        int // bytes granted by the provider
	AllocatedBlocks int
	AllocatedBytes  int // block sizes, overhead included
	PayloadBytes    int // usable payload of allocated blocks
	FreeBlocks      int
	FreeBytes       int
	LargestFree     int
}

// Stats returns the counters plus a walk of the current heap.
func (a *Allocator) Stats() Stats {
	s := Stats{
		AllocCalls:         a.stats.allocCalls,
		FreeCalls:          a.stats.freeCalls,
		ReallocCalls:       a.stats.reallocCalls,
		FitHits:            a.stats.fitHits,
		FitMisses:          a.stats.fitMisses,
		FitScanned:         a.stats.fitScanned,
		GrowCalls:          a.stats.growCalls,
		GrowBytes:          a.stats.growBytes,
		Splits:             a.stats.splits,
		CoalesceNone:       a.stats.coalesceNone,
		CoalesceNext:       a.stats.coalesceNext,
		CoalescePrev:       a.stats.coalescePrev,
		CoalesceBoth:       a.stats.coalesceBoth,
		ReallocInPlace:     a.stats.inPlace,
		ReallocRelocations: a.stats.relocations,
		HeapSize:           a.p.Len(),
	}
	if !a.initialized() {
		return s
	}

	data := a.p.Bytes()
	for bp := format.NextBlock(data, a.prologue); ; {
		size := format.BlockSize(data, bp)
		if size == 0 || size > len(data)-bp {
			break
		}
		if format.BlockAllocated(data, bp) {
			s.AllocatedBlocks++
			s.AllocatedBytes += size
			s.PayloadBytes += size - format.Overhead
		} else {
			s.FreeBlocks++
			s.FreeBytes += size
			s.LargestFree = max(s.LargestFree, size)
		}
		bp += size
	}
	return s
}

// HeapSize returns the number of bytes granted by the provider.
func (a *Allocator) HeapSize() int { return a.p.Len() }
