// Package engine serializes access to the shared inference resource and
// converts its failures into the typed errors the rest of the system
// branches on. At most one inference call is ever in flight; everything
// else queues FIFO behind the gate.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// InferenceEngine wraps the model call. All resource-state writes happen
// under the same exclusion as the calls themselves, so a single gate guards
// both "is a call in flight" and "is the resource loaded".
type InferenceEngine struct {
	rt      models.ModelRuntime
	guard   *ResourceGuard
	timeout time.Duration
	gate    gate
}

// NewInferenceEngine creates an engine over rt with the given per-call
// wall-clock budget. guard must wrap the same runtime instance.
func NewInferenceEngine(rt models.ModelRuntime, guard *ResourceGuard, timeout time.Duration) *InferenceEngine {
	return &InferenceEngine{rt: rt, guard: guard, timeout: timeout}
}

// Infer runs one model call: queue for the gate, ensure the resource is
// loaded, call with a timeout budget, report usage back to the idle timer.
// The engine never retries; retry policy belongs to the caller.
func (e *InferenceEngine) Infer(ctx context.Context, clip models.AudioClip, prompt string) (string, error) {
	if clip.Len() == 0 {
		return "", ErrInvalidAudio
	}

	if err := e.gate.Acquire(ctx); err != nil {
		// Abandoned before our turn; no resource time was consumed.
		return "", fmt.Errorf("waiting for inference slot: %w", err)
	}
	defer e.gate.Release()

	if err := e.guard.EnsureLoaded(ctx); err != nil {
		return "", err
	}

	// Once the call starts it runs to completion or timeout: caller
	// abandonment only matters while queued, where the gate dequeues it.
	// Cancelling the runtime mid-call would leave the resource in an
	// undefined state.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	raw, err := e.rt.Infer(callCtx, clip, prompt)
	e.guard.MarkUsed()
	if err != nil {
		switch {
		case callCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w after %s: %v", ErrInferenceTimeout, e.timeout, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrInferenceRuntime, err)
		}
	}
	return raw, nil
}

// EnsureLoaded warms the model without running an inference. Queues behind
// in-flight work like any other caller.
func (e *InferenceEngine) EnsureLoaded(ctx context.Context) error {
	if err := e.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("waiting for inference slot: %w", err)
	}
	defer e.gate.Release()
	return e.guard.EnsureLoaded(ctx)
}

// ForceRelease unconditionally frees the resource. It takes the gate first,
// so no inference can be in flight while memory is reclaimed.
func (e *InferenceEngine) ForceRelease(ctx context.Context) error {
	if err := e.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("waiting for inference slot: %w", err)
	}
	defer e.gate.Release()
	return e.guard.Release(ctx, true)
}

// Status returns the guard's non-blocking snapshot.
func (e *InferenceEngine) Status() models.ModelStatus {
	return e.guard.Status()
}

// StartIdleSweeper periodically releases the resource when it has sat idle
// past the guard's threshold. The sweeper only acts when it can take the
// gate immediately: a busy gate means the model is in use, not idle. Stops
// when ctx is done.
func (e *InferenceEngine) StartIdleSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !e.gate.TryAcquire() {
					continue
				}
				if err := e.guard.Release(ctx, false); err != nil {
					slog.Error("idle unload failed", "error", err)
				}
				e.gate.Release()
			}
		}
	}()
}
