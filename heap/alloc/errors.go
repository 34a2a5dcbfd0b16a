package alloc

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidSize indicates a request for zero or negative bytes.
	ErrInvalidSize = errors.New("alloc: size must be positive")

	// ErrOutOfMemory indicates the provider refused to extend the heap.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadRef indicates a reference that is not a block payload in this heap.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrNotAllocated indicates an operation on a block that is already free.
	ErrNotAllocated = errors.New("alloc: block is not allocated")

	// ErrNotInitialized indicates use of the allocator before Init succeeded.
	ErrNotInitialized = errors.New("alloc: heap not initialized")

	// ErrAlreadyInitialized indicates a second call to Init.
	ErrAlreadyInitialized = errors.New("alloc: heap already initialized")
)
