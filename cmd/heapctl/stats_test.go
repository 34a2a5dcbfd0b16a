package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCommand(t *testing.T) {
	resetFlags()

	output, err := captureOutput(t, func() error {
		return runStats(context.Background(), []string{"testdata/short1.rep"})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Allocator Statistics: testdata/short1.rep",
		"Alloc: 3",
		"Free: 3",
		"Fit misses: 1",
		"Size: 8.0 KB (8,240 bytes)",
		"Free: 1 blocks, 8,192 bytes (largest 8,192)",
	})
}

func TestStatsCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, func() error {
		return runStats(context.Background(), []string{"testdata/realloc.rep"})
	})
	require.NoError(t, err)
	assertJSON(t, output)
	assertContains(t, output, []string{`"ReallocCalls": 4`, `"HeapSize": 4144`})
}

func TestStatsCommand_Quiet(t *testing.T) {
	resetFlags()
	quiet = true

	output, err := captureOutput(t, func() error {
		return runStats(context.Background(), []string{"testdata/short1.rep"})
	})
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(int64(1234567)))
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "20.0 MB", formatBytes(20<<20))
}
