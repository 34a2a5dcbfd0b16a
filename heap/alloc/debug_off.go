//go:build !heapdebug

package alloc

// debugAlloc enables a full heap check after every mutating operation.
// Build with -tags heapdebug to turn it on.
const debugAlloc = false
