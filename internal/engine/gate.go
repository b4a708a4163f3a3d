package engine

import (
	"context"
	"sync"
)

// gate is a mutual-exclusion lock with strict FIFO hand-off. The shared
// inference resource admits one call at a time; queued callers are served
// in arrival order so no request starves. A waiter whose context is
// cancelled before its turn is removed from the queue without ever holding
// the slot.
type gate struct {
	mu    sync.Mutex
	busy  bool
	queue []chan struct{}
}

// Acquire blocks until the caller owns the gate or ctx is done.
func (g *gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if !g.busy {
		g.busy = true
		g.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	g.queue = append(g.queue, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.queue {
			if w == ch {
				g.queue = append(g.queue[:i], g.queue[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		g.mu.Unlock()
		// Release handed us the slot concurrently with cancellation.
		// Wait for the hand-off and pass it straight on.
		<-ch
		g.Release()
		return ctx.Err()
	}
}

// TryAcquire takes the gate only if it is immediately free. Used by the
// idle sweeper: a busy gate means the resource is not idle.
func (g *gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// Release hands the gate to the oldest waiter, or marks it free.
func (g *gate) Release() {
	g.mu.Lock()
	if len(g.queue) > 0 {
		ch := g.queue[0]
		g.queue = g.queue[1:]
		g.mu.Unlock()
		close(ch)
		return
	}
	g.busy = false
	g.mu.Unlock()
}
