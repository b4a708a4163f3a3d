package engine

import "errors"

// Failure taxonomy for inference. Handlers and the pipeline branch on these
// with errors.Is; the pipeline additionally decides retryability from them.
var (
	// ErrInvalidAudio means the caller supplied an empty clip. Client error,
	// never retried.
	ErrInvalidAudio = errors.New("invalid audio: empty clip")

	// ErrResourceLoad means the inference resource could not be loaded
	// (e.g., insufficient device memory). Fatal for the request, not the
	// process; retryable with backoff.
	ErrResourceLoad = errors.New("inference resource load failed")

	// ErrInferenceTimeout means the model call exceeded its wall-clock
	// budget and was cancelled.
	ErrInferenceTimeout = errors.New("inference timed out")

	// ErrInferenceRuntime means the resource itself errored mid-call
	// (e.g., unsupported audio encoding). Treated as bad input.
	ErrInferenceRuntime = errors.New("inference runtime failure")
)
