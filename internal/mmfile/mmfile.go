// Package mmfile maps heap image files read-only for inspection.
//
// An image is a raw arena dump: at least the initial prologue and epilogue
// words, and a whole number of alignment units long.
package mmfile

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/internal/format"
)

// ErrNotImage is returned for files whose size cannot be a heap arena.
var ErrNotImage = errors.New("mmfile: not a heap image")

func checkImageSize(size int64) error {
	if size < format.InitialSize {
		return errors.Wrapf(ErrNotImage, "%d bytes is smaller than an empty heap (%d)", size, format.InitialSize)
	}
	if size%format.Alignment != 0 {
		return errors.Wrapf(ErrNotImage, "%d bytes is not a multiple of %d", size, format.Alignment)
	}
	if size > int64(^uint(0)>>1) {
		return errors.Wrapf(ErrNotImage, "%d bytes is too large to map", size)
	}
	return nil
}
