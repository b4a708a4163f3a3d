package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// ResourceGuard owns the lifecycle of the inference resource: load on
// demand, unload when idle or forced, and a non-blocking status snapshot.
// It is the only writer of the process-wide model status.
//
// Mutating methods (EnsureLoaded, Release, MarkUsed) must be called with
// the engine's inference gate held; the internal mutex only makes Status
// snapshots consistent and never protects a slow operation.
type ResourceGuard struct {
	rt        models.ModelRuntime
	idleAfter time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      models.ModelState
	loadedAt   time.Time
	lastUsedAt time.Time
}

// NewResourceGuard creates a guard over rt. idleAfter is the idle threshold
// for non-forced release.
func NewResourceGuard(rt models.ModelRuntime, idleAfter time.Duration) *ResourceGuard {
	return &ResourceGuard{
		rt:        rt,
		idleAfter: idleAfter,
		now:       time.Now,
		state:     models.ModelUnloaded,
	}
}

// EnsureLoaded loads the resource if it is not already loaded. Blocks the
// caller for the full warm-up. Returns a wrapped ErrResourceLoad on failure.
func (g *ResourceGuard) EnsureLoaded(ctx context.Context) error {
	g.mu.Lock()
	if g.state == models.ModelLoaded {
		g.mu.Unlock()
		return nil
	}
	g.state = models.ModelLoading
	g.mu.Unlock()

	start := g.now()
	err := g.rt.Load(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = models.ModelUnloaded
		return fmt.Errorf("%w: %v", ErrResourceLoad, err)
	}
	g.state = models.ModelLoaded
	g.loadedAt = g.now()
	g.lastUsedAt = g.loadedAt
	slog.Info("model loaded", "runtime", g.rt.Name(), "warmup", g.now().Sub(start))
	return nil
}

// Release unloads the resource. With force=true the unload is unconditional
// and the status always ends up unloaded, even if the runtime reports an
// error freeing memory. With force=false the resource is released only when
// it has been idle for at least the configured threshold.
func (g *ResourceGuard) Release(ctx context.Context, force bool) error {
	g.mu.Lock()
	if g.state != models.ModelLoaded {
		g.mu.Unlock()
		return nil
	}
	if !force && g.now().Sub(g.lastUsedAt) < g.idleAfter {
		g.mu.Unlock()
		return nil
	}
	g.state = models.ModelUnloading
	idle := g.now().Sub(g.lastUsedAt)
	g.mu.Unlock()

	err := g.rt.Unload(ctx)

	g.mu.Lock()
	// Never leave the guard stuck in "unloading": the resource is treated
	// as gone either way, and the next EnsureLoaded starts fresh.
	g.state = models.ModelUnloaded
	g.loadedAt = time.Time{}
	g.mu.Unlock()

	if err != nil {
		return fmt.Errorf("unloading model: %w", err)
	}
	slog.Info("model unloaded", "runtime", g.rt.Name(), "forced", force, "idle", idle)
	return nil
}

// MarkUsed records inference activity for the idle timer.
func (g *ResourceGuard) MarkUsed() {
	g.mu.Lock()
	g.lastUsedAt = g.now()
	g.mu.Unlock()
}

// Status returns an immutable snapshot of the model state. Never blocks on
// load or unload.
func (g *ResourceGuard) Status() models.ModelStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.ModelStatus{
		State:      g.state,
		Runtime:    g.rt.Name(),
		LoadedAt:   g.loadedAt,
		LastUsedAt: g.lastUsedAt,
	}
}
