package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/engine"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// ModelControl exposes the inference resource lifecycle.
type ModelControl interface {
	EnsureLoaded(ctx context.Context) error
	ForceRelease(ctx context.Context) error
	Status() models.ModelStatus
}

type modelStatusResponse struct {
	State      string `json:"state"`
	Runtime    string `json:"runtime"`
	LoadedAt   string `json:"loaded_at,omitempty"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

func toStatusResponse(st models.ModelStatus) modelStatusResponse {
	resp := modelStatusResponse{
		State:   string(st.State),
		Runtime: st.Runtime,
	}
	if !st.LoadedAt.IsZero() {
		resp.LoadedAt = st.LoadedAt.UTC().Format(time.RFC3339)
	}
	if !st.LastUsedAt.IsZero() {
		resp.LastUsedAt = st.LastUsedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// NewModelStatusHandler returns an http.HandlerFunc for GET /api/v1/model/status.
func NewModelStatusHandler(ctl ModelControl) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, toStatusResponse(ctl.Status()))
	}
}

// NewModelLoadHandler returns an http.HandlerFunc for POST /api/v1/model/load.
func NewModelLoadHandler(ctl ModelControl) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctl.EnsureLoaded(r.Context()); err != nil {
			if errors.Is(err, engine.ErrResourceLoad) {
				response.Error(w, http.StatusServiceUnavailable, "MODEL_LOAD_FAILED",
					"The model could not be loaded; retry later", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, toStatusResponse(ctl.Status()))
	}
}

// NewModelUnloadHandler returns an http.HandlerFunc for POST /api/v1/model/unload.
// Unload is forced: it waits for in-flight inference to drain, then releases
// regardless of the idle threshold.
func NewModelUnloadHandler(ctl ModelControl) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctl.ForceRelease(r.Context()); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, toStatusResponse(ctl.Status()))
	}
}
