package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/invoice"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// RenderService completes a caller-supplied record and produces its PDF.
type RenderService interface {
	RenderFromRecord(ctx context.Context, rec *models.InvoiceRecord) (*invoice.Outcome, error)
}

// renderRequest is the JSON body for POST /api/v1/invoices/render. Numeric
// fields are pointers so an absent field stays unset and flows through
// autofill rather than being pinned at zero.
type renderRequest struct {
	CustomerName  string              `json:"customer_name"`
	CustomerAddr  string              `json:"customer_address"`
	InvoiceNumber string              `json:"invoice_number"`
	InvoiceDate   string              `json:"invoice_date"`
	DueDate       string              `json:"due_date"`
	Currency      string              `json:"currency"`
	Items         []renderRequestItem `json:"items"`
	Subtotal      *float64            `json:"subtotal"`
	TaxRate       *float64            `json:"tax_rate"`
	TaxAmount     *float64            `json:"tax_amount"`
	GrandTotal    *float64            `json:"grand_total"`
	Notes         string              `json:"notes"`
}

type renderRequestItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Total       *float64 `json:"total"`
}

// NewRenderHandler returns an http.HandlerFunc for POST /api/v1/invoices/render.
func NewRenderHandler(svc RenderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Invalid JSON body", nil)
			return
		}
		if len(req.Items) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"at least one item is required", nil)
			return
		}

		outcome, err := svc.RenderFromRecord(r.Context(), req.toRecord())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Created(w, outcome)
	}
}

func (req renderRequest) toRecord() *models.InvoiceRecord {
	rec := &models.InvoiceRecord{
		CustomerName:  req.CustomerName,
		CustomerAddr:  req.CustomerAddr,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
		DueDate:       req.DueDate,
		Currency:      req.Currency,
		Notes:         req.Notes,
	}
	setMoney(&rec.Subtotal, &rec.SubtotalSet, req.Subtotal)
	setMoney(&rec.TaxRate, &rec.TaxRateSet, req.TaxRate)
	setMoney(&rec.TaxAmount, &rec.TaxAmountSet, req.TaxAmount)
	setMoney(&rec.GrandTotal, &rec.GrandTotalSet, req.GrandTotal)

	for _, it := range req.Items {
		item := models.LineItem{Description: it.Description}
		setMoney(&item.Quantity, &item.QuantitySet, it.Quantity)
		setMoney(&item.UnitPrice, &item.UnitPriceSet, it.UnitPrice)
		setMoney(&item.Total, &item.TotalSet, it.Total)
		rec.Items = append(rec.Items, item)
	}
	return rec
}

func setMoney(dst *float64, flag *bool, src *float64) {
	if src == nil {
		return
	}
	*dst = *src
	*flag = true
}
