package alloc

import "github.com/joshuapare/heapkit/internal/format"

// insert pushes bp onto the head of the free list.
func (a *Allocator) insert(bp Ref) {
	a.setPrev(bp, Nil)
	a.setNext(bp, a.head)
	if a.head != Nil {
		a.setPrev(a.head, bp)
	}
	a.head = bp
}

// remove unlinks bp from the free list.
func (a *Allocator) remove(bp Ref) {
	data := a.p.Bytes()
	prev := Ref(format.PrevFree(data, int(bp)))
	next := Ref(format.NextFree(data, int(bp)))

	if prev != Nil {
		a.setNext(prev, next)
	} else {
		a.head = next
	}
	if next != Nil {
		a.setPrev(next, prev)
	}
}

// findFit returns the first free block in list order holding at least asize bytes.
func (a *Allocator) findFit(asize int) Ref {
	data := a.p.Bytes()
	for bp := a.head; bp != Nil; bp = Ref(format.NextFree(data, int(bp))) {
		a.stats.fitScanned++
		if format.BlockSize(data, int(bp)) >= asize {
			return bp
		}
	}
	return Nil
}

// FreeList returns the free blocks in list order.
func (a *Allocator) FreeList() []Ref {
	var out []Ref
	data := a.p.Bytes()
	for bp := a.head; bp != Nil; bp = Ref(format.NextFree(data, int(bp))) {
		out = append(out, bp)
	}
	return out
}

func (a *Allocator) setPrev(bp, v Ref) {
	format.SetPrevFree(a.p.Bytes(), int(bp), uint64(v))
	a.mark(int(bp), format.WordSize)
}

func (a *Allocator) setNext(bp, v Ref) {
	format.SetNextFree(a.p.Bytes(), int(bp), uint64(v))
	a.mark(int(bp)+format.WordSize, format.WordSize)
}
