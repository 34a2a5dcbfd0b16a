package format

import "golang.org/x/exp/constraints"

// Align returns n aligned up to the next multiple of a, which must be a power of two.
//
// Example:
//
//	Align(1, 16)  = 16
//	Align(16, 16) = 16
//	Align(17, 16) = 32
func Align[T constraints.Integer](n, a T) T {
	return (n + a - 1) &^ (a - 1)
}

// AdjustedSize returns the block size needed to hold a payload of n bytes:
// the payload rounded up to Alignment plus Overhead, never below MinBlockSize.
func AdjustedSize(n int) int {
	return max(Align(n, Alignment)+Overhead, MinBlockSize)
}

// IsAligned reports whether off is a multiple of Alignment.
func IsAligned[T constraints.Integer](off T) bool {
	return off&AlignmentMask == 0
}
