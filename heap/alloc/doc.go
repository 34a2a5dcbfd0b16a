// Package alloc implements a boundary-tag heap allocator over a single,
// monotonically growing byte arena.
//
// # Overview
//
// Blocks carry identical header and footer tags (size | allocated bit). Free
// blocks are threaded onto one explicit, unordered, doubly-linked free list
// whose links live inside the free payload. Placement is first fit in list
// order, oversized fits are split, and freed blocks are merged with free
// physical neighbors immediately.
//
// # Allocator Interface
//
//   - Init(): Write the prologue and epilogue and seed the first free block
//   - Alloc(size): Allocate a block with at least size payload bytes
//   - Free(ref): Release a block (Nil is a no-op)
//   - Realloc(ref, size): Resize in place when shrinking, relocate when growing
//   - CheckHeap(verbose): Diagnostic walk, never mutates the heap
//
// # Usage Example
//
//	p := provider.NewMem(provider.DefaultCapacity)
//	a, err := alloc.New(p, nil, nil)
//	if err != nil {
//	    return err
//	}
//	if err := a.Init(); err != nil {
//	    return err
//	}
//
//	ref, buf, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// Later, release it
//	err = a.Free(ref)
//
// # Block References
//
// A Ref is the offset of a block's payload within the arena. Offset 0 holds
// a padding word and is never a payload, so Nil (0) doubles as the null
// reference. Payload offsets are always 16-byte aligned.
//
// # Growth
//
// When no free block fits, the heap is extended by max(adjusted size,
// Config.ChunkSize) bytes. The new block replaces the old epilogue, a new
// epilogue is written after it, and the block is merged with a free
// predecessor before it is placed. Provider failure surfaces as
// ErrOutOfMemory and leaves every existing block untouched.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize access
// externally.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/provider: Arena providers
//   - github.com/joshuapare/heapkit/heap/verify: Consistency checker
//   - github.com/joshuapare/heapkit/heap/dirty: Dirty range tracking
//   - github.com/joshuapare/heapkit/internal/format: Block layout
package alloc
