package alloc

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/heap/provider"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// maxRequest bounds payload requests so size adjustment cannot overflow.
const maxRequest = math.MaxInt64 >> 2

// logAlloc enables growth and fit-failure logging, set HEAP_LOG_ALLOC=1.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// Allocator manages blocks inside a single provider arena.
//
// Not safe for concurrent use.
type Allocator struct {
	p     provider.Provider
	dt    DirtyTracker
	chunk int

	prologue int // payload offset of the prologue block, 0 until Init succeeds
	head     Ref // first free block, Nil when the free list is empty

	stats counters

	// onGrow is a test hook invoked after each successful heap extension.
	onGrow func(bytes int)
}

// New creates an allocator over p. dt may be nil. A nil cfg selects DefaultConfig.
//
// The heap is unusable until Init succeeds.
func New(p provider.Provider, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	if p == nil {
		return nil, errors.New("alloc: nil provider")
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}
	chunk := cfg.ChunkSize
	if chunk < 0 {
		return nil, errors.Newf("alloc: negative chunk size %d", chunk)
	}
	if chunk == 0 {
		chunk = DefaultConfig.ChunkSize
	}
	chunk = max(format.Align(chunk, format.Alignment), format.MinBlockSize)

	return &Allocator{p: p, dt: dt, chunk: chunk}, nil
}

// Init lays out the padding word, prologue and epilogue, then extends the heap
// by one chunk to create the first free block.
func (a *Allocator) Init() error {
	if a.initialized() {
		return ErrAlreadyInitialized
	}
	base, err := a.p.Extend(format.InitialSize)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "alloc: init heap"), ErrOutOfMemory)
	}
	if base != 0 {
		return errors.Newf("alloc: provider already holds %d bytes", base)
	}

	data := a.p.Bytes()
	format.PutTag(data, 0, 0)
	a.setBlock(format.PrologueOffset, format.MinBlockSize, true)
	format.SetPrevFree(data, format.PrologueOffset, 0)
	format.SetNextFree(data, format.PrologueOffset, 0)
	a.putEpilogue(format.InitialSize)
	a.mark(0, format.InitialSize)

	a.head = Nil
	if _, err := a.extendHeap(a.chunk); err != nil {
		return err
	}
	a.prologue = format.PrologueOffset

	if logAlloc {
		logger.Debug("heap initialized", "heap_size", a.p.Len(), "chunk", a.chunk)
	}
	a.debugCheck("init")
	return nil
}

func (a *Allocator) initialized() bool { return a.prologue != 0 }

// Alloc returns a block with at least size payload bytes. The returned slice
// has len == size and cap == the block's usable payload.
func (a *Allocator) Alloc(size int) (Ref, []byte, error) {
	a.stats.allocCalls++
	return a.alloc(size)
}

func (a *Allocator) alloc(size int) (Ref, []byte, error) {
	if size <= 0 {
		return Nil, nil, errors.Wrapf(ErrInvalidSize, "alloc %d bytes", size)
	}
	if !a.initialized() {
		return Nil, nil, ErrNotInitialized
	}
	if size > maxRequest {
		return Nil, nil, errors.Wrapf(ErrOutOfMemory, "alloc %d bytes", size)
	}

	asize := format.AdjustedSize(size)
	bp := a.findFit(asize)
	if bp == Nil {
		a.stats.fitMisses++
		if logAlloc {
			logger.Debug("no free block fits", "need", asize, "heap_size", a.p.Len())
		}
		var err error
		if bp, err = a.extendHeap(max(asize, a.chunk)); err != nil {
			return Nil, nil, err
		}
	} else {
		a.stats.fitHits++
	}

	a.place(bp, asize)
	a.debugCheck("alloc")
	return bp, a.payload(int(bp), size), nil
}

// Free releases ref. Freeing Nil is a no-op.
func (a *Allocator) Free(ref Ref) error {
	a.stats.freeCalls++
	return a.free(ref)
}

func (a *Allocator) free(ref Ref) error {
	if ref == Nil {
		return nil
	}
	if err := a.checkRef(ref); err != nil {
		return err
	}

	bp := int(ref)
	a.setBlock(bp, format.BlockSize(a.p.Bytes(), bp), false)
	a.insert(a.coalesce(ref))
	a.debugCheck("free")
	return nil
}

// Realloc resizes ref to hold size payload bytes.
//
// A non-positive size frees ref and returns Nil. A Nil ref behaves like Alloc.
// Shrinking keeps the block in place, splitting off the tail when it is large
// enough to stand alone. Growing always moves the data to a new block; if that
// allocation fails the original block is left untouched.
//
// Realloc counts only as a realloc call in Stats, never as an alloc or free.
func (a *Allocator) Realloc(ref Ref, size int) (Ref, []byte, error) {
	a.stats.reallocCalls++
	if size <= 0 {
		return Nil, nil, a.free(ref)
	}
	if ref == Nil {
		return a.alloc(size)
	}
	if err := a.checkRef(ref); err != nil {
		return Nil, nil, err
	}
	if size > maxRequest {
		return Nil, nil, errors.Wrapf(ErrOutOfMemory, "realloc to %d bytes", size)
	}

	bp := int(ref)
	old := format.BlockSize(a.p.Bytes(), bp)
	asize := format.AdjustedSize(size)

	if asize <= old {
		if old-asize >= format.MinBlockSize {
			a.setBlock(bp, asize, true)
			rest := bp + asize
			a.setBlock(rest, old-asize, false)
			a.insert(a.coalesce(Ref(rest)))
			a.stats.splits++
		}
		a.stats.inPlace++
		a.debugCheck("realloc")
		return ref, a.payload(bp, size), nil
	}

	newRef, buf, err := a.alloc(size)
	if err != nil {
		return Nil, nil, err
	}
	data := a.p.Bytes()
	copy(buf, data[bp:bp+old-format.Overhead])
	if err := a.free(ref); err != nil {
		return Nil, nil, err
	}
	a.stats.relocations++
	return newRef, buf, nil
}

// Payload returns the full usable payload of an allocated block.
func (a *Allocator) Payload(ref Ref) ([]byte, error) {
	if err := a.checkRef(ref); err != nil {
		return nil, err
	}
	n := format.BlockSize(a.p.Bytes(), int(ref)) - format.Overhead
	return a.payload(int(ref), n), nil
}

// PayloadSize returns the usable payload bytes of an allocated block.
func (a *Allocator) PayloadSize(ref Ref) (int, error) {
	if err := a.checkRef(ref); err != nil {
		return 0, err
	}
	return format.BlockSize(a.p.Bytes(), int(ref)) - format.Overhead, nil
}

// place carves asize bytes out of the free block bp.
func (a *Allocator) place(bp Ref, asize int) {
	b := int(bp)
	csize := format.BlockSize(a.p.Bytes(), b)
	a.remove(bp)

	if csize-asize >= format.MinBlockSize {
		a.setBlock(b, asize, true)
		rest := b + asize
		a.setBlock(rest, csize-asize, false)
		a.insert(a.coalesce(Ref(rest)))
		a.stats.splits++
		return
	}
	a.setBlock(b, csize, true)
}

// extendHeap grows the arena by at least n bytes. The new free block takes
// over the old epilogue's header word, is merged with a free predecessor and
// inserted into the free list. Provider failure leaves the heap unchanged.
func (a *Allocator) extendHeap(n int) (Ref, error) {
	size := max(format.Align(n, format.Alignment), format.MinBlockSize)

	bp, err := a.p.Extend(size)
	if err != nil {
		if logAlloc {
			logger.Warn("heap extension refused", "bytes", size, "heap_size", a.p.Len(), "error", err)
		}
		return Nil, errors.Mark(errors.Wrapf(err, "alloc: extend heap by %d bytes", size), ErrOutOfMemory)
	}

	a.setBlock(bp, size, false)
	a.putEpilogue(bp + size)

	a.stats.growCalls++
	a.stats.growBytes += int64(size)
	if logAlloc {
		logger.Debug("heap extended", "bytes", size, "heap_size", a.p.Len(), "grow_calls", a.stats.growCalls)
	}
	if a.onGrow != nil {
		a.onGrow(size)
	}

	ref := a.coalesce(Ref(bp))
	a.insert(ref)
	return ref, nil
}

// checkRef validates that ref names an allocated block inside the heap.
func (a *Allocator) checkRef(ref Ref) error {
	if !a.initialized() {
		return ErrNotInitialized
	}
	data := a.p.Bytes()
	bp := uint64(ref)
	first := uint64(a.prologue + format.MinBlockSize)
	if bp < first || bp >= uint64(len(data)) || !format.IsAligned(bp) {
		return errors.Wrapf(ErrBadRef, "ref 0x%X", bp)
	}
	b := int(bp)
	size := format.BlockSize(data, b)
	if size < format.MinBlockSize || size > len(data)-b {
		return errors.Wrapf(ErrBadRef, "ref 0x%X has block size %d", bp, size)
	}
	if !format.BlockAllocated(data, b) {
		return errors.Wrapf(ErrNotAllocated, "ref 0x%X", bp)
	}
	return nil
}

func (a *Allocator) payload(bp, size int) []byte {
	data := a.p.Bytes()
	usable := format.BlockSize(data, bp) - format.Overhead
	return data[bp : bp+size : bp+usable]
}

// setBlock writes matching header and footer tags and records both words as dirty.
func (a *Allocator) setBlock(bp, size int, allocated bool) {
	format.SetBlock(a.p.Bytes(), bp, size, allocated)
	a.mark(format.HeaderOff(bp), format.WordSize)
	a.mark(bp+size-format.DoubleWordSize, format.WordSize)
}

// putEpilogue writes the zero-size allocated header that ends the heap at end.
func (a *Allocator) putEpilogue(end int) {
	off := end - format.WordSize
	format.PutTag(a.p.Bytes(), off, format.Pack(0, true))
	a.mark(off, format.WordSize)
}

func (a *Allocator) mark(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}

// debugCheck runs a full heap check after op when built with -tags heapdebug.
func (a *Allocator) debugCheck(op string) {
	if !debugAlloc {
		return
	}
	if err := a.Check(); err != nil {
		logger.Error("heap check failed", "op", op, "error", err)
	}
}
