// Package provider supplies the raw, monotonically growing byte arena that the
// allocator carves blocks from. A provider only ever appends: previously granted
// bytes are never moved, shrunk, or reclaimed.
package provider

import "github.com/cockroachdb/errors"

// DefaultCapacity is the arena capacity used when none is configured (20 MiB).
const DefaultCapacity = 20 << 20

var (
	// ErrExhausted indicates the provider cannot grant the requested bytes.
	ErrExhausted = errors.New("provider: arena exhausted")

	// ErrClosed indicates the provider was used after Close.
	ErrClosed = errors.New("provider: closed")

	// ErrNegativeExtend indicates a request to shrink the arena.
	ErrNegativeExtend = errors.New("provider: negative extend")
)

// Provider is the heap memory collaborator used by the allocator.
//
// Extend grants n more bytes contiguous with everything granted before and
// returns the offset of the first new byte (the previous length). The new bytes
// have unspecified content.
type Provider interface {
	Extend(n int) (int, error)

	// Bytes returns all granted bytes. The slice is valid until Close.
	Bytes() []byte

	// Len returns the number of granted bytes.
	Len() int
}

// checkExtend validates an extension request against the current length and capacity.
func checkExtend(n, length, capacity int) error {
	if n < 0 {
		return errors.Wrapf(ErrNegativeExtend, "extend by %d", n)
	}
	if n > capacity-length {
		return errors.Wrapf(ErrExhausted, "extend by %d with %d of %d bytes used", n, length, capacity)
	}
	return nil
}
