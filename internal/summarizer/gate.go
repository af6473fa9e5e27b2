package summarizer

import (
	"context"
	"time"
)

// Gate is a counting admission gate bounding in-flight provider calls.
// Callers block in Acquire when all slots are taken; Release may hold
// the slot for a fixed delay before freeing it, smoothing burst rate
// against provider quotas.
type Gate struct {
	slots chan struct{}
	delay time.Duration
}

// NewGate creates a gate admitting at most n concurrent holders.
func NewGate(n int, delay time.Duration) *Gate {
	if n <= 0 {
		n = 1
	}
	return &Gate{
		slots: make(chan struct{}, n),
		delay: delay,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the caller's slot, after the configured delay if one is
// set. The delayed free runs off-goroutine so callers never block here.
func (g *Gate) Release() {
	if g.delay <= 0 {
		<-g.slots
		return
	}
	time.AfterFunc(g.delay, func() {
		<-g.slots
	})
}
