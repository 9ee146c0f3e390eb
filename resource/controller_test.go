package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerBound(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	ctx := context.Background()

	require.NoError(t, c.AcquireWorker(ctx))
	require.NoError(t, c.AcquireWorker(ctx))
	require.Equal(t, int64(2), c.InFlight())

	// The third slot is unavailable without a release.
	require.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	require.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	c.ReleaseWorker()
	require.Equal(t, int64(0), c.InFlight())
}

func TestAcquireWorkerHonorsContext(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1})
	require.NoError(t, c.AcquireWorker(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireWorker(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultsToSingleWorker(t *testing.T) {
	c := NewController(Config{})
	require.Equal(t, 1, c.MaxWorkers())
	require.True(t, c.TryAcquireWorker())
	require.False(t, c.TryAcquireWorker())
	c.ReleaseWorker()
}

func TestNilControllerIsUnlimited(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireWorker(context.Background()))
	require.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	require.Equal(t, int64(0), c.InFlight())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestAcquireIOUnlimitedWhenUnset(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestAcquireIOThrottles(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1, ArtifactBytesPerSec: 1024})

	// Burst capacity covers the first kilobyte immediately.
	require.NoError(t, c.AcquireIO(context.Background(), 1024))

	// A second full burst within the same instant must wait; a short
	// deadline turns that wait into an error.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.AcquireIO(ctx, 1024)
	require.Error(t, err)
}
