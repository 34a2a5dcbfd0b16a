package trace

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// ErrMisaligned indicates a payload that is not 16-byte aligned.
	ErrMisaligned = errors.New("trace: misaligned payload")

	// ErrOutOfBounds indicates a payload that extends past the heap.
	ErrOutOfBounds = errors.New("trace: payload outside heap")

	// ErrOverlap indicates two live payloads share bytes.
	ErrOverlap = errors.New("trace: payloads overlap")

	// ErrCorrupt indicates a payload changed while its block was live.
	ErrCorrupt = errors.New("trace: payload corrupted")

	// ErrUnknownID indicates a free or resize of an id that is not live.
	ErrUnknownID = errors.New("trace: id is not allocated")
)

// Heap is the allocator surface a trace drives.
type Heap interface {
	Alloc(size int) (alloc.Ref, []byte, error)
	Free(ref alloc.Ref) error
	Realloc(ref alloc.Ref, size int) (alloc.Ref, []byte, error)
	Check() error
	HeapSize() int
}

// Options controls replay checking.
type Options struct {
	// CheckEach runs the full heap check after every operation.
	CheckEach bool
}

// Result summarizes a replay.
type Result struct {
	Name        string
	Ops         int
	Allocs      int
	Frees       int
	Reallocs    int
	PeakPayload int // highest sum of live requested sizes
	HeapSize    int // bytes granted by the provider at the end
}

// Utilization is peak live payload over final heap size.
func (r *Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakPayload) / float64(r.HeapSize)
}

type block struct {
	ref  alloc.Ref
	buf  []byte
	live bool
}

// Replay executes tr against h. Every payload is filled with a byte derived
// from its id and verified before it is freed or resized.
func Replay(ctx context.Context, tr *Trace, h Heap, opts Options) (*Result, error) {
	res := &Result{Name: tr.Name}
	blocks := make([]block, tr.NumIDs)
	payload := 0

	for i, op := range tr.Ops {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		b := &blocks[op.ID]
		switch op.Kind {
		case Alloc:
			if b.live {
				return res, opErr(op, errors.Newf("trace: id %d is already allocated", op.ID))
			}
			ref, buf, err := h.Alloc(op.Size)
			if err != nil {
				return res, opErr(op, err)
			}
			if err := checkRange(h, blocks, op.ID, ref, len(buf)); err != nil {
				return res, opErr(op, err)
			}
			fill(buf, op.ID)
			*b = block{ref: ref, buf: buf, live: true}
			payload += op.Size
			res.Allocs++

		case Realloc:
			if !b.live {
				return res, opErr(op, errors.Wrapf(ErrUnknownID, "id %d", op.ID))
			}
			if err := verifyFill(b.buf, op.ID); err != nil {
				return res, opErr(op, err)
			}
			oldSize := len(b.buf)
			ref, buf, err := h.Realloc(b.ref, op.Size)
			if err != nil {
				return res, opErr(op, err)
			}
			payload -= oldSize
			if ref == alloc.Nil {
				*b = block{}
				res.Reallocs++
				break
			}
			if err := verifyFill(buf[:min(oldSize, len(buf))], op.ID); err != nil {
				return res, opErr(op, err)
			}
			if err := checkRange(h, blocks, op.ID, ref, len(buf)); err != nil {
				return res, opErr(op, err)
			}
			fill(buf, op.ID)
			*b = block{ref: ref, buf: buf, live: true}
			payload += op.Size
			res.Reallocs++

		case Free:
			if !b.live {
				return res, opErr(op, errors.Wrapf(ErrUnknownID, "id %d", op.ID))
			}
			if err := verifyFill(b.buf, op.ID); err != nil {
				return res, opErr(op, err)
			}
			if err := h.Free(b.ref); err != nil {
				return res, opErr(op, err)
			}
			payload -= len(b.buf)
			*b = block{}
			res.Frees++
		}

		res.Ops++
		res.PeakPayload = max(res.PeakPayload, payload)
		if opts.CheckEach {
			if err := h.Check(); err != nil {
				return res, opErr(op, err)
			}
		}
	}

	res.HeapSize = h.HeapSize()
	logger.Debug("trace replayed",
		"trace", tr.Name,
		"ops", res.Ops,
		"peak_payload", res.PeakPayload,
		"heap_size", res.HeapSize)
	return res, nil
}

// checkRange validates a new payload for id against the heap bounds and every
// other live payload.
func checkRange(h Heap, blocks []block, id int, ref alloc.Ref, size int) error {
	lo := uint64(ref)
	hi := lo + uint64(size)
	if !format.IsAligned(lo) {
		return errors.Wrapf(ErrMisaligned, "payload 0x%X", lo)
	}
	if heap := uint64(h.HeapSize()); hi > heap {
		return errors.Wrapf(ErrOutOfBounds, "payload [0x%X,0x%X) in heap of %d bytes", lo, hi, heap)
	}
	for other, b := range blocks {
		if !b.live || other == id {
			continue
		}
		olo := uint64(b.ref)
		ohi := olo + uint64(len(b.buf))
		if lo < ohi && olo < hi {
			return errors.Wrapf(ErrOverlap, "payload [0x%X,0x%X) overlaps id %d at [0x%X,0x%X)", lo, hi, other, olo, ohi)
		}
	}
	return nil
}

func fill(buf []byte, id int) {
	v := byte(id)
	for i := range buf {
		buf[i] = v
	}
}

func verifyFill(buf []byte, id int) error {
	v := byte(id)
	for i, c := range buf {
		if c != v {
			return errors.Wrapf(ErrCorrupt, "id %d byte %d is 0x%02X, want 0x%02X", id, i, c, v)
		}
	}
	return nil
}

func opErr(op Op, err error) error {
	return errors.Wrapf(err, "line %d: %s id %d", op.Line, op.Kind, op.ID)
}
