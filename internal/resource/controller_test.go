package resource

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	err := c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	assert.Equal(t, min(runtime.NumCPU(), MaxWorkers), NewController(Config{}).Workers())
	assert.Equal(t, MaxWorkers, NewController(Config{Workers: 1000}).Workers())

	c := NewController(Config{Workers: 2})
	require.NoError(t, c.AcquireWorker(t.Context()))
	require.NoError(t, c.AcquireWorker(t.Context()))
	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireWorker(ctx))

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_NilIsNoop(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, 1, c.Workers())
	assert.NoError(t, c.AcquireWorker(t.Context()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	assert.NoError(t, c.AcquireIO(t.Context(), 1<<30))
}

func TestController_IOChunksLargeRequests(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	// Larger than the burst; must not fail with "exceeds burst".
	require.NoError(t, c.AcquireIO(t.Context(), 1<<20+10))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 1<<21))
}

func TestRateLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRateLimitedWriter(t.Context(), &buf, NewController(Config{IOLimitBytesPerSec: 1 << 20}))
	n, err := w.Write([]byte("pages"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "pages", buf.String())
}
