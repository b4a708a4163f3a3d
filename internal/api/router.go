package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/Hardik-Sankhla/VoiceInvoice/internal/api/middleware"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ExtractHandler http.HandlerFunc
	RenderHandler  http.HandlerFunc

	ListInvoices http.HandlerFunc
	GetInvoice   http.HandlerFunc
	InvoicePDF   http.HandlerFunc
	InvoiceAudio http.HandlerFunc

	ModelStatus http.HandlerFunc
	ModelLoad   http.HandlerFunc
	ModelUnload http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Health check is never rate limited
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/invoices/extract", orNotImplemented(deps.ExtractHandler))
		r.Post("/api/v1/invoices/render", orNotImplemented(deps.RenderHandler))

		r.Get("/api/v1/invoices", orNotImplemented(deps.ListInvoices))
		r.Get("/api/v1/invoices/{invoiceID}", orNotImplemented(deps.GetInvoice))
		r.Get("/api/v1/invoices/{invoiceID}/pdf", orNotImplemented(deps.InvoicePDF))
		r.Get("/api/v1/invoices/{invoiceID}/audio", orNotImplemented(deps.InvoiceAudio))

		r.Get("/api/v1/model/status", orNotImplemented(deps.ModelStatus))
		r.Post("/api/v1/model/load", orNotImplemented(deps.ModelLoad))
		r.Post("/api/v1/model/unload", orNotImplemented(deps.ModelUnload))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
