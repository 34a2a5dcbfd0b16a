package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// Allocators report every tag and link word they write through it so a
// file-backed arena can flush only the pages that changed.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the arena, length is the number of bytes.
	Add(off, length int)
}

// Syncer persists a byte range of the arena. provider.File implements it.
type Syncer interface {
	Sync(off, n int) error
}
