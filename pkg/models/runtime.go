package models

import "context"

// ModelRuntime is the handle to the inference resource. Never call a
// concrete runtime directly — always inject this interface.
//
// Implementations are NOT required to be safe for concurrent Infer calls;
// the engine serializes access. Load and Unload may block for multiple
// seconds (model warm-up, device memory release).
type ModelRuntime interface {
	// Load makes the model ready to serve. Idempotent on an already
	// loaded model.
	Load(ctx context.Context) error
	// Unload frees the model and its device memory.
	Unload(ctx context.Context) error
	// Infer maps one audio clip plus an instruction prompt to raw model
	// text. The clip is guaranteed non-empty by the caller.
	Infer(ctx context.Context, clip AudioClip, prompt string) (string, error)
	// Name returns the runtime identifier (e.g., "sidecar", "mock").
	Name() string
}
