// Package mock provides a scriptable model runtime for tests and for
// running the server without a GPU.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Runtime satisfies models.ModelRuntime for testing. The function fields
// override behavior per test; unset fields fall back to benign defaults.
type Runtime struct {
	Name_      string
	LoadFunc   func(ctx context.Context) error
	UnloadFunc func(ctx context.Context) error
	InferFunc  func(ctx context.Context, clip models.AudioClip, prompt string) (string, error)

	mu      sync.Mutex
	loads   int
	unloads int
	calls   []CallSpan
	active  int
	overlap bool
}

// CallSpan records the wall-clock window of one Infer call. Tests use these
// to prove that calls against the shared resource never overlap.
type CallSpan struct {
	Enter time.Time
	Exit  time.Time
}

func (r *Runtime) Name() string {
	if r.Name_ == "" {
		return "mock"
	}
	return r.Name_
}

func (r *Runtime) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()
	if r.LoadFunc != nil {
		return r.LoadFunc(ctx)
	}
	return nil
}

func (r *Runtime) Unload(ctx context.Context) error {
	r.mu.Lock()
	r.unloads++
	r.mu.Unlock()
	if r.UnloadFunc != nil {
		return r.UnloadFunc(ctx)
	}
	return nil
}

func (r *Runtime) Infer(ctx context.Context, clip models.AudioClip, prompt string) (string, error) {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	span := CallSpan{Enter: time.Now()}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active--
		span.Exit = time.Now()
		r.calls = append(r.calls, span)
		r.mu.Unlock()
	}()

	if r.InferFunc != nil {
		return r.InferFunc(ctx, clip, prompt)
	}
	return "CUSTOMER: Mock Client\nITEM: Mock Item,1,10.00\n", nil
}

// Loads returns how many times Load was invoked.
func (r *Runtime) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// Unloads returns how many times Unload was invoked.
func (r *Runtime) Unloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloads
}

// Calls returns the recorded Infer spans in completion order.
func (r *Runtime) Calls() []CallSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallSpan, len(r.calls))
	copy(out, r.calls)
	return out
}

// SawOverlap reports whether two Infer calls were ever in flight at once.
func (r *Runtime) SawOverlap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlap
}

// NewRuntime returns a Runtime with benign default responses.
func NewRuntime() *Runtime {
	return &Runtime{Name_: "mock"}
}

// NewFailingRuntime returns a Runtime whose Load always returns the given error.
func NewFailingRuntime(err error) *Runtime {
	return &Runtime{
		Name_:    "mock-failing",
		LoadFunc: func(_ context.Context) error { return err },
	}
}

// NewSlowRuntime returns a Runtime whose Infer blocks for d or until the
// context is cancelled, whichever comes first.
func NewSlowRuntime(d time.Duration, text string) *Runtime {
	return &Runtime{
		Name_: "mock-slow",
		InferFunc: func(ctx context.Context, _ models.AudioClip, _ string) (string, error) {
			select {
			case <-time.After(d):
				return text, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
}

// Compile-time check that Runtime implements ModelRuntime.
var _ models.ModelRuntime = (*Runtime)(nil)
