package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/storage"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/store"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// InvoiceReader exposes persisted invoices.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, id string) (*store.Invoice, error)
	ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]*store.Invoice, int, error)
}

// FileService serves the stored artifacts of a persisted invoice.
type FileService interface {
	InvoicePDF(ctx context.Context, invoiceID string) ([]byte, error)
	InvoiceAudio(ctx context.Context, invoiceID string) ([]byte, error)
}

type invoiceResponse struct {
	ID          string                `json:"id"`
	Invoice     models.InvoiceRecord  `json:"invoice"`
	Confidence  string                `json:"confidence"`
	AudioObject string                `json:"audio_object,omitempty"`
	PDFObject   string                `json:"pdf_object"`
	CreatedAt   time.Time             `json:"created_at"`
}

func toInvoiceResponse(inv *store.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          inv.ID,
		Invoice:     inv.Record,
		Confidence:  inv.Confidence,
		AudioObject: inv.AudioObject,
		PDFObject:   inv.PDFObject,
		CreatedAt:   inv.CreatedAt,
	}
}

// NewListInvoicesHandler returns an http.HandlerFunc for GET /api/v1/invoices.
// Supported query params: customer, confidence, since (RFC3339), page, limit.
func NewListInvoicesHandler(reader InvoiceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.InvoiceFilter{
			CustomerName: q.Get("customer"),
			Confidence:   q.Get("confidence"),
		}
		if since := q.Get("since"); since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"since must be a valid RFC3339 timestamp", nil)
				return
			}
			filter.Since = t
		}
		filter.Page, _ = strconv.Atoi(q.Get("page"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))

		invoices, total, err := reader.ListInvoices(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		items := make([]invoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			items = append(items, toInvoiceResponse(inv))
		}

		// Same normalization the store applies, so the meta matches what
		// was actually queried.
		page, limit := filter.Page, filter.Limit
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}
		response.Collection(w, items, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// NewGetInvoiceHandler returns an http.HandlerFunc for GET /api/v1/invoices/{invoiceID}.
func NewGetInvoiceHandler(reader InvoiceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := reader.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "INVOICE_NOT_FOUND",
					"No invoice with that ID", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, toInvoiceResponse(inv))
	}
}

// NewInvoicePDFHandler returns an http.HandlerFunc for
// GET /api/v1/invoices/{invoiceID}/pdf.
func NewInvoicePDFHandler(files FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := files.InvoicePDF(r.Context(), chi.URLParam(r, "invoiceID"))
		if err != nil {
			writeFileError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// NewInvoiceAudioHandler returns an http.HandlerFunc for
// GET /api/v1/invoices/{invoiceID}/audio.
func NewInvoiceAudioHandler(files FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := files.InvoiceAudio(r.Context(), chi.URLParam(r, "invoiceID"))
		if err != nil {
			writeFileError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func writeFileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "INVOICE_NOT_FOUND",
			"No invoice with that ID", nil)
	case errors.Is(err, storage.ErrObjectNotFound):
		response.Error(w, http.StatusNotFound, "OBJECT_NOT_FOUND",
			"The stored file is missing", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
