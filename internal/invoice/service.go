// Package invoice orchestrates the full extraction flow: cache lookup, audio
// persistence, pipeline run, PDF rendering, and invoice storage.
package invoice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/cache"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/extract"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/storage"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/store"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Extractor runs the audio-to-invoice pipeline.
type Extractor interface {
	Extract(ctx context.Context, req models.ExtractionRequest) models.PipelineResult
}

// Renderer turns a completed record into PDF bytes.
type Renderer func(rec *models.InvoiceRecord) ([]byte, error)

// Outcome is a completed extraction or render, ready to serve to the caller.
type Outcome struct {
	InvoiceID   string                `json:"invoice_id"`
	Invoice     *models.InvoiceRecord `json:"invoice"`
	Confidence  string                `json:"confidence"`
	AudioObject string                `json:"audio_object,omitempty"`
	PDFObject   string                `json:"pdf_object"`
	Cached      bool                  `json:"cached"`
}

// Service wires the pipeline to storage, persistence, and the result cache.
type Service struct {
	pipeline Extractor
	autofill *extract.AutofillPolicy
	render   Renderer
	objects  storage.ObjectStore
	store    store.Store
	cache    cache.Cache

	audioBucket string
	pdfBucket   string
	cacheTTL    time.Duration
}

// NewService creates a Service. The cache may be nil-backed at the interface
// level but must not be nil itself; cache failures are non-fatal throughout.
func NewService(
	pipeline Extractor,
	autofill *extract.AutofillPolicy,
	render Renderer,
	objects storage.ObjectStore,
	st store.Store,
	ca cache.Cache,
	storageCfg config.StorageConfig,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		pipeline:    pipeline,
		autofill:    autofill,
		render:      render,
		objects:     objects,
		store:       st,
		cache:       ca,
		audioBucket: storageCfg.AudioBucket,
		pdfBucket:   storageCfg.PDFBucket,
		cacheTTL:    cacheTTL,
	}
}

// ExtractFromAudio runs the whole flow for one uploaded voice note. Identical
// clips with identical context are served from the result cache without
// touching the model.
func (s *Service) ExtractFromAudio(ctx context.Context, req models.ExtractionRequest) (*Outcome, error) {
	digest := requestDigest(req)

	if cached, ok, err := s.cache.GetResult(ctx, digest); err != nil {
		slog.Warn("result cache lookup failed", "error", err)
	} else if ok {
		return &Outcome{
			InvoiceID:  cached.InvoiceID,
			Invoice:    cached.Invoice,
			Confidence: cached.Confidence,
			PDFObject:  cached.PDFObject,
			Cached:     true,
		}, nil
	}

	audioObject := uuid.NewString() + audioExt(req.Audio.MIME)
	if _, err := s.objects.Upload(ctx, s.audioBucket, audioObject, req.Audio.Data, req.Audio.MIME); err != nil {
		return nil, fmt.Errorf("storing audio: %w", err)
	}

	res := s.pipeline.Extract(ctx, req)
	if !res.OK() {
		return nil, res.Err
	}

	outcome, err := s.finalize(ctx, res.Invoice, res.Confidence, audioObject)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetResult(ctx, digest, cache.CachedResult{
		Invoice:    outcome.Invoice,
		Confidence: outcome.Confidence,
		PDFObject:  outcome.PDFObject,
		InvoiceID:  outcome.InvoiceID,
	}, s.cacheTTL); err != nil {
		slog.Warn("result cache store failed", "error", err)
	}

	return outcome, nil
}

// RenderFromRecord completes a caller-supplied record (autofill) and produces
// a stored PDF for it, bypassing the model entirely.
func (s *Service) RenderFromRecord(ctx context.Context, rec *models.InvoiceRecord) (*Outcome, error) {
	filled, needsReview := s.autofill.Apply(ctx, rec)
	confidence := models.ConfidenceHigh
	if needsReview {
		confidence = models.ConfidenceLow
	}
	return s.finalize(ctx, filled, confidence, "")
}

// InvoicePDF fetches the stored PDF for a persisted invoice.
func (s *Service) InvoicePDF(ctx context.Context, invoiceID string) ([]byte, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.objects.Download(ctx, s.pdfBucket, inv.PDFObject)
}

// InvoiceAudio fetches the original voice note for a persisted invoice.
// Invoices created via RenderFromRecord have no audio.
func (s *Service) InvoiceAudio(ctx context.Context, invoiceID string) ([]byte, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.AudioObject == "" {
		return nil, storage.ErrObjectNotFound
	}
	return s.objects.Download(ctx, s.audioBucket, inv.AudioObject)
}

func (s *Service) finalize(ctx context.Context, rec *models.InvoiceRecord, confidence, audioObject string) (*Outcome, error) {
	pdfBytes, err := s.render(rec)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}

	// Dictated invoice numbers are not unique; prefix the object with our
	// own ID so a repeated number cannot overwrite another invoice's PDF.
	invoiceID := uuid.NewString()
	pdfObject := invoiceID + "-" + strings.ToLower(rec.InvoiceNumber) + ".pdf"
	if _, err := s.objects.Upload(ctx, s.pdfBucket, pdfObject, pdfBytes, "application/pdf"); err != nil {
		return nil, fmt.Errorf("storing pdf: %w", err)
	}

	inv := &store.Invoice{
		ID:          invoiceID,
		Record:      *rec,
		Confidence:  confidence,
		AudioObject: audioObject,
		PDFObject:   pdfObject,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("persisting invoice: %w", err)
	}

	return &Outcome{
		InvoiceID:   inv.ID,
		Invoice:     rec,
		Confidence:  confidence,
		AudioObject: audioObject,
		PDFObject:   pdfObject,
	}, nil
}

// requestDigest keys the result cache: same bytes plus same prior context
// means the same invoice.
func requestDigest(req models.ExtractionRequest) string {
	h := sha256.New()
	h.Write(req.Audio.Data)
	h.Write([]byte{0})
	h.Write([]byte(req.KnownCustomer))
	h.Write([]byte{0})
	h.Write([]byte(req.Transcript))
	return hex.EncodeToString(h.Sum(nil))
}

func audioExt(mime string) string {
	switch mime {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac":
		return ".flac"
	default:
		return ".bin"
	}
}
