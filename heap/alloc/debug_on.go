//go:build heapdebug

package alloc

const debugAlloc = true
