package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Ref is the arena offset of a block's payload.
type Ref uint64

// Nil is the null block reference.
const Nil Ref = 0

// Config controls heap growth.
type Config struct {
	// ChunkSize is the minimum number of bytes requested from the provider
	// whenever the heap must grow. Zero selects DefaultConfig.ChunkSize.
	ChunkSize int
}

// DefaultConfig is used when New is given a nil config.
var DefaultConfig = Config{
	ChunkSize: format.DefaultChunkSize,
}
