package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/engine"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Pipeline stage names, used to attribute failures.
const (
	StageInference = "inference"
	StageParse     = "parse"
)

// StageError wraps every pipeline failure with the stage it occurred at, so
// a failure is always attributable.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("extraction failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Inferencer is the slice of the inference engine the pipeline depends on.
type Inferencer interface {
	Infer(ctx context.Context, clip models.AudioClip, prompt string) (string, error)
}

// Pipeline composes prompt building, inference, parsing, and autofill into
// the single public extraction operation. Prompting, parsing, and autofill
// are pure and run fully in parallel across requests; only the inference
// call serializes, inside the engine.
type Pipeline struct {
	prompts     *PromptBuilder
	engine      Inferencer
	parser      *Parser
	autofill    *AutofillPolicy
	loadRetries int
	loadBackoff time.Duration
}

// NewPipeline wires the extraction stages together. loadRetries bounds the
// attempts made when the inference resource fails to load; loadBackoff is
// the initial retry delay.
func NewPipeline(prompts *PromptBuilder, eng Inferencer, parser *Parser, autofill *AutofillPolicy, loadRetries int, loadBackoff time.Duration) *Pipeline {
	if loadRetries < 1 {
		loadRetries = 1
	}
	return &Pipeline{
		prompts:     prompts,
		engine:      eng,
		parser:      parser,
		autofill:    autofill,
		loadRetries: loadRetries,
		loadBackoff: loadBackoff,
	}
}

// Extract runs audio bytes through the full pipeline. It returns either a
// complete, autofilled invoice with confidence metadata, or a typed failure
// naming the stage; a partial invoice never escapes as a success.
func (p *Pipeline) Extract(ctx context.Context, req models.ExtractionRequest) models.PipelineResult {
	prompt := p.prompts.Build(req)

	raw, err := p.infer(ctx, req.Audio, prompt)
	if err != nil {
		return failure(StageInference, err)
	}

	rec, err := p.parser.Parse(raw)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			slog.Warn("unusable model output", "reason", perr.Reason, "raw_len", len(perr.Raw))
		}
		return failure(StageParse, err)
	}

	// Autofill is total; it cannot fail this request.
	rec, needsReview := p.autofill.Apply(ctx, rec)

	confidence := models.ConfidenceHigh
	if needsReview {
		confidence = models.ConfidenceLow
	}
	return models.PipelineResult{Invoice: rec, Confidence: confidence}
}

// infer runs the model call under the pipeline's retry policy: resource
// load failures retry with exponential backoff up to the configured attempt
// count, a timeout is retried exactly once with a fresh budget, and
// everything else (bad audio, runtime errors, unusable output) surfaces
// immediately.
func (p *Pipeline) infer(ctx context.Context, clip models.AudioClip, prompt string) (string, error) {
	// Load failures and the once-only timeout retry have separate budgets:
	// exhausted load attempts must not eat the timeout's fresh attempt.
	timeoutRetried := false
	loadAttempts := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.loadBackoff
	bo.MaxElapsedTime = 0

	return backoff.RetryWithData(func() (string, error) {
		raw, err := p.engine.Infer(ctx, clip, prompt)
		if err == nil {
			return raw, nil
		}
		switch {
		case errors.Is(err, engine.ErrResourceLoad):
			loadAttempts++
			if loadAttempts >= p.loadRetries {
				return "", backoff.Permanent(err)
			}
			slog.Warn("model load failed, retrying", "error", err)
			return "", err
		case errors.Is(err, engine.ErrInferenceTimeout) && !timeoutRetried:
			timeoutRetried = true
			slog.Warn("inference timed out, retrying once", "error", err)
			return "", err
		default:
			return "", backoff.Permanent(err)
		}
	}, backoff.WithContext(bo, ctx))
}

func failure(stage string, err error) models.PipelineResult {
	return models.PipelineResult{Err: &StageError{Stage: stage, Err: err}}
}
