package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/engine"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/extract"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/invoice"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// maxAudioBytes caps uploaded voice notes at 25 MiB.
const maxAudioBytes = 25 << 20

// ExtractService runs the extraction flow for one uploaded clip.
type ExtractService interface {
	ExtractFromAudio(ctx context.Context, req models.ExtractionRequest) (*invoice.Outcome, error)
}

// NewExtractHandler returns an http.HandlerFunc for POST /api/v1/invoices/extract.
// The request is multipart form data: a "file" part with the audio, plus
// optional "customer" and "transcript" fields.
func NewExtractHandler(svc ExtractService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Expected multipart form data with a file part", nil)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"file is required", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_AUDIO",
				"Could not read uploaded audio", nil)
			return
		}

		req := models.ExtractionRequest{
			Audio: models.AudioClip{
				Data: data,
				MIME: header.Header.Get("Content-Type"),
			},
			KnownCustomer: r.FormValue("customer"),
			Transcript:    r.FormValue("transcript"),
		}

		outcome, err := svc.ExtractFromAudio(r.Context(), req)
		if err != nil {
			writeExtractionError(w, err)
			return
		}

		response.Created(w, outcome)
	}
}

// writeExtractionError maps pipeline and engine failures onto HTTP statuses.
// StageError wrappers unwrap transparently via errors.Is / errors.As.
func writeExtractionError(w http.ResponseWriter, err error) {
	var parseErr *extract.ParseError
	switch {
	case errors.Is(err, engine.ErrInvalidAudio):
		response.Error(w, http.StatusBadRequest, "INVALID_AUDIO",
			"The uploaded clip is empty or unreadable", nil)
	case errors.Is(err, engine.ErrResourceLoad):
		response.Error(w, http.StatusServiceUnavailable, "MODEL_LOAD_FAILED",
			"The model could not be loaded; retry later", nil)
	case errors.Is(err, engine.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "INFERENCE_TIMEOUT",
			"Inference took too long and was cancelled", nil)
	case errors.As(err, &parseErr):
		response.Error(w, http.StatusUnprocessableEntity, "UNPARSEABLE_OUTPUT",
			"The model output could not be parsed into an invoice",
			map[string]string{"reason": parseErr.Reason, "raw": parseErr.Raw})
	case errors.Is(err, engine.ErrInferenceRuntime):
		response.Error(w, http.StatusUnprocessableEntity, "INFERENCE_FAILED",
			"The model rejected the request", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
