package format

import "github.com/joshuapare/heapkit/internal/buf"

// Pack combines a block size and allocated flag into a tag word.
func Pack(size uint64, allocated bool) uint64 {
	if allocated {
		return size | allocatedBit
	}
	return size
}

// TagSize returns the block size encoded in tag.
func TagSize(tag uint64) uint64 { return tag & sizeMask }

// TagAllocated reports whether tag marks its block allocated.
func TagAllocated(tag uint64) bool { return tag&allocatedBit != 0 }

// ReadTag reads the word at off.
func ReadTag(b []byte, off int) uint64 { return buf.U64LE(b[off:]) }

// PutTag writes the word tag at off.
func PutTag(b []byte, off int, tag uint64) { buf.PutU64LE(b[off:], tag) }

// HeaderOff returns the header offset of the block whose payload starts at bp.
func HeaderOff(bp int) int { return bp - WordSize }

// FooterOff returns the footer offset of the block whose payload starts at bp.
// The size is taken from the header.
func FooterOff(b []byte, bp int) int { return bp + BlockSize(b, bp) - DoubleWordSize }

// BlockSize returns the size recorded in the header of the block at bp.
func BlockSize(b []byte, bp int) int { return int(TagSize(ReadTag(b, HeaderOff(bp)))) }

// BlockAllocated reports whether the header of the block at bp is marked allocated.
func BlockAllocated(b []byte, bp int) bool { return TagAllocated(ReadTag(b, HeaderOff(bp))) }

// NextBlock returns the payload offset of the block physically after bp.
func NextBlock(b []byte, bp int) int { return bp + BlockSize(b, bp) }

// PrevBlock returns the payload offset of the block physically before bp, using
// the size stored in that block's footer.
func PrevBlock(b []byte, bp int) int {
	return bp - int(TagSize(ReadTag(b, bp-DoubleWordSize)))
}

// PrevFooterOff returns the offset of the footer of the block physically before bp.
func PrevFooterOff(bp int) int { return bp - DoubleWordSize }

// SetBlock writes identical header and footer tags for a block of size bytes at bp.
func SetBlock(b []byte, bp, size int, allocated bool) {
	tag := Pack(uint64(size), allocated)
	PutTag(b, HeaderOff(bp), tag)
	PutTag(b, bp+size-DoubleWordSize, tag)
}

// PrevFree returns the prev link of the free block at bp.
func PrevFree(b []byte, bp int) uint64 { return ReadTag(b, bp+prevLinkOffset) }

// NextFree returns the next link of the free block at bp.
func NextFree(b []byte, bp int) uint64 { return ReadTag(b, bp+nextLinkOffset) }

// SetPrevFree writes the prev link of the free block at bp.
func SetPrevFree(b []byte, bp int, v uint64) { PutTag(b, bp+prevLinkOffset, v) }

// SetNextFree writes the next link of the free block at bp.
func SetNextFree(b []byte, bp int, v uint64) { PutTag(b, bp+nextLinkOffset, v) }
