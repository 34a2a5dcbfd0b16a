package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExtendGrowsBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	p, err := OpenFile(path, 1<<16)
	require.NoError(t, err)
	defer p.Close()

	off, err := p.Extend(48)
	require.NoError(t, err)
	assert.Equal(t, 0, off)

	off, err = p.Extend(4096)
	require.NoError(t, err)
	assert.Equal(t, 48, off)
	assert.Equal(t, 4144, p.Len())
	assert.Equal(t, 2, p.Calls())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4144), st.Size())
}

func TestFileSyncPersistsBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	p, err := OpenFile(path, 1<<16)
	require.NoError(t, err)

	_, err = p.Extend(8192)
	require.NoError(t, err)
	copy(p.Bytes()[5000:], []byte("heapkit"))
	require.NoError(t, p.Sync(5000, 7))
	require.NoError(t, p.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 8192)
	assert.Equal(t, "heapkit", string(data[5000:5007]))
}

func TestFileExhausted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	p, err := OpenFile(path, 4096)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Extend(1 << 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 0, p.Len())
}

func TestFileClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	p, err := OpenFile(path, 4096)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "double close is a no-op")

	_, err = p.Extend(16)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(p.Sync(0, 16), ErrClosed))
}

func TestOpenFileRejectsBadCapacity(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "heap.bin"), 0)
	require.Error(t, err)
}
