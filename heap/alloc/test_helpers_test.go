package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/provider"
	"github.com/joshuapare/heapkit/internal/format"
)

// newTestAllocator returns an initialized allocator over a Mem provider of the
// given capacity using the default chunk size.
func newTestAllocator(t testing.TB, capacity int) (*Allocator, *provider.Mem) {
	t.Helper()
	return newTestAllocatorWithConfig(t, capacity, nil)
}

func newTestAllocatorWithConfig(t testing.TB, capacity int, cfg *Config) (*Allocator, *provider.Mem) {
	t.Helper()

	p := provider.NewMem(capacity, provider.WithFill(0xA5))
	a, err := New(p, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Init())
	return a, p
}

// assertInvariants runs the full consistency check and the partition identity:
// padding word + every block + epilogue header covers the arena exactly.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()

	r := a.Report()
	require.Empty(t, r.Errors, "heap violations:\n%s", r.Format(true))

	total := format.WordSize + format.WordSize
	for _, b := range r.Blocks {
		total += b.Size
	}
	require.Equal(t, a.p.Len(), total, "blocks must partition the arena")
	require.Equal(t, r.FreeBlocks, len(a.FreeList()))
}

// fillPattern writes a recognizable byte sequence derived from seed.
func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i*7)
	}
}

func requirePattern(t testing.TB, b []byte, seed byte) {
	t.Helper()
	for i := range b {
		if b[i] != seed+byte(i*7) {
			t.Fatalf("byte %d = 0x%02X, want 0x%02X", i, b[i], seed+byte(i*7))
		}
	}
}

// firstBlock is the payload offset of the first block after the prologue.
const firstBlock = format.PrologueOffset + format.MinBlockSize
