package summarizer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_BoundsConcurrency(t *testing.T) {
	g := NewGate(2, 0)
	ctx := context.Background()

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(ctx))
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			g.Release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestGate_SingleSlotQueuesCallers(t *testing.T) {
	g := NewGate(1, 0)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx))

	second := make(chan struct{})
	go func() {
		require.NoError(t, g.Acquire(ctx))
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("second caller admitted while slot held")
	case <-time.After(20 * time.Millisecond):
	}

	g.Release()
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second caller never admitted after release")
	}
	g.Release()
}

func TestGate_ReleaseDelayHoldsSlot(t *testing.T) {
	delay := 50 * time.Millisecond
	g := NewGate(1, delay)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx))
	start := time.Now()
	g.Release()

	// The slot frees only after the configured delay.
	require.NoError(t, g.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), delay)
	g.Release()
}

func TestGate_AcquireRespectsContext(t *testing.T) {
	g := NewGate(1, 0)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGate_ZeroSizeClampedToOne(t *testing.T) {
	g := NewGate(0, 0)
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}
