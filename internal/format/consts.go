// Package format houses the boundary-tag block layout of the heap arena. It is
// the only package that reads or writes tag and link words; everything above it
// works in terms of payload offsets.
package format

// Arena layout (little-endian words):
//
//	Offset  Size  Description
//	0x00    8     Padding word so the first payload lands on a 16-byte boundary
//	0x08    8     Prologue header  (MinBlockSize, allocated)
//	0x10    16    Prologue payload (two unused link slots)
//	0x20    8     Prologue footer  (MinBlockSize, allocated)
//	0x28    8     Epilogue header  (0, allocated)
//
// Every block after the prologue is laid out as:
//
//	bp-8    8     Header: size | allocated
//	bp+0    ...   Payload. When free: prev link at bp+0, next link at bp+8
//	bp+s-16 8     Footer: byte-identical copy of the header
const (
	// WordSize is the size of a tag or link word.
	WordSize = 8

	// DoubleWordSize is the size of two words.
	DoubleWordSize = 2 * WordSize

	// Alignment is the alignment of every block size and payload offset.
	Alignment = 16

	// AlignmentMask is Alignment - 1.
	AlignmentMask = Alignment - 1

	// Overhead is the per-block cost of the header and footer.
	Overhead = 2 * WordSize

	// MinBlockSize is header + footer + two link slots, so any block can become a free-list node.
	MinBlockSize = Overhead + 2*WordSize

	// PrologueOffset is the payload offset of the prologue block.
	PrologueOffset = WordSize + WordSize

	// InitialSize is padding + prologue + epilogue header.
	InitialSize = WordSize + MinBlockSize + WordSize

	// DefaultChunkSize is the default number of bytes requested per heap extension.
	DefaultChunkSize = 1 << 12

	// allocatedBit marks a tag as allocated.
	allocatedBit = 0x1

	// sizeMask strips the flag bits from a tag.
	sizeMask = ^uint64(AlignmentMask)

	// prevLinkOffset and nextLinkOffset locate the free-list links inside a free payload.
	prevLinkOffset = 0
	nextLinkOffset = WordSize
)
