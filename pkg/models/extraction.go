package models

// AudioClip is a raw audio payload as received from the caller. Immutable
// once constructed; discarded after the pipeline completes.
type AudioClip struct {
	Data []byte
	MIME string
}

// Len returns the byte length of the clip.
func (c AudioClip) Len() int { return len(c.Data) }

// ExtractionRequest wraps one audio clip plus optional prior context. A
// request is owned by exactly one pipeline invocation and never shared.
type ExtractionRequest struct {
	Audio AudioClip

	// KnownCustomer is a caller-supplied hint (e.g., the account the note
	// was recorded against). Forwarded verbatim into the prompt.
	KnownCustomer string

	// Transcript is an optional pre-provided transcript of the audio.
	Transcript string
}

// Confidence labels for a successful extraction.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// PipelineResult is the outcome of one extraction: either a complete,
// autofilled invoice with confidence metadata, or a stage-attributed failure.
type PipelineResult struct {
	Invoice    *InvoiceRecord `json:"invoice,omitempty"`
	Confidence string         `json:"confidence,omitempty"`
	Err        error          `json:"-"`
}

// OK reports whether the pipeline produced a complete invoice.
func (r PipelineResult) OK() bool { return r.Err == nil && r.Invoice != nil }
