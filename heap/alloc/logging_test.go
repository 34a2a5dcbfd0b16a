package alloc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/logger"
)

func TestLogAlloc(t *testing.T) {
	var out bytes.Buffer
	logger.Init(logger.Options{Enabled: true, Writer: &out, Level: slog.LevelDebug})
	prev := logAlloc
	logAlloc = true
	t.Cleanup(func() {
		logAlloc = prev
		logger.Init(logger.Options{})
	})

	a, _ := newTestAllocator(t, 4144+5024)
	_, _, err := a.Alloc(5000)
	require.NoError(t, err)
	_, _, err = a.Alloc(5000)
	require.Error(t, err)

	log := out.String()
	assert.Contains(t, log, "heap initialized")
	assert.Contains(t, log, "no free block fits")
	assert.Contains(t, log, "heap extended")
	assert.Contains(t, log, "heap extension refused")
}
