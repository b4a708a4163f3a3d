// Package models contains shared data models used across the VoiceInvoice codebase.
package models

import "math"

// NeedsReview marks a required textual field the extraction could not
// determine. The autofill policy never invents customer names or item
// descriptions; it flags them for a human instead.
const NeedsReview = "needs-review"

// LineItem is a single billed position, in dictation order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`

	// Set flags distinguish "zero" from "the model never said".
	QuantitySet  bool `json:"-"`
	UnitPriceSet bool `json:"-"`
	TotalSet     bool `json:"-"`
}

// InvoiceRecord is the structured result of one extraction. It is populated
// by the response parser, completed by the autofill policy, and read-only
// after the pipeline returns it.
type InvoiceRecord struct {
	ID            string     `json:"id,omitempty"`
	CustomerName  string     `json:"customer_name"`
	CustomerAddr  string     `json:"customer_address,omitempty"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"` // YYYY-MM-DD
	DueDate       string     `json:"due_date"`     // YYYY-MM-DD
	Currency      string     `json:"currency"`     // ISO 4217
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	TaxRate       float64    `json:"tax_rate"`
	TaxAmount     float64    `json:"tax_amount"`
	GrandTotal    float64    `json:"grand_total"`
	Notes         string     `json:"notes,omitempty"`

	SubtotalSet   bool `json:"-"`
	TaxRateSet    bool `json:"-"`
	TaxAmountSet  bool `json:"-"`
	GrandTotalSet bool `json:"-"`
}

// MoneyTolerance is the comparison tolerance for derived monetary values.
const MoneyTolerance = 0.005

// Round2 rounds a monetary value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEqual reports whether two monetary values agree within MoneyTolerance.
func MoneyEqual(a, b float64) bool {
	return math.Abs(a-b) < MoneyTolerance
}

// Clone returns a deep copy so the autofill policy never mutates its input.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = make([]LineItem, len(r.Items))
	copy(out.Items, r.Items)
	return &out
}
