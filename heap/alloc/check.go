package alloc

import (
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

// Report walks the heap and returns the full consistency report.
func (a *Allocator) Report() *verify.Report {
	return verify.Heap(a.p.Bytes(), format.PrologueOffset, uint64(a.head))
}

// CheckHeap returns the consistency report as text. When verbose, every block
// is listed. A clean, non-verbose check returns "". The heap is not modified.
func (a *Allocator) CheckHeap(verbose bool) string {
	return a.Report().Format(verbose)
}

// Check returns nil if the heap is consistent, otherwise the first violation.
func (a *Allocator) Check() error {
	return a.Report().Err()
}
