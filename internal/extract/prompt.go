// Package extract turns raw audio into a validated invoice: prompt
// construction, response parsing, deterministic autofill, and the pipeline
// that sequences them.
package extract

import (
	"strings"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Schema describes the tagged-field output contract the model is instructed
// to follow and the parser depends on. The labels here are the schema
// markers: lines the model emits as "LABEL: value".
type Schema struct {
	Customer      string
	Address       string
	InvoiceNumber string
	Date          string
	DueDate       string
	Currency      string
	Item          string
	TaxRate       string
	Subtotal      string
	Total         string
	Notes         string
}

// DefaultSchema returns the marker set the server ships with.
func DefaultSchema() Schema {
	return Schema{
		Customer:      "CUSTOMER",
		Address:       "ADDRESS",
		InvoiceNumber: "INVOICE",
		Date:          "DATE",
		DueDate:       "DUE",
		Currency:      "CURRENCY",
		Item:          "ITEM",
		TaxRate:       "TAX_RATE",
		Subtotal:      "SUBTOTAL",
		Total:         "TOTAL",
		Notes:         "NOTES",
	}
}

// labels returns every marker in a stable order.
func (s Schema) labels() []string {
	return []string{
		s.Customer, s.Address, s.InvoiceNumber, s.Date, s.DueDate,
		s.Currency, s.Item, s.TaxRate, s.Subtotal, s.Total, s.Notes,
	}
}

// PromptBuilder deterministically constructs the instruction text for one
// extraction request. Same request, same prompt — the output contract is
// the single most important correctness lever, since the parser depends on
// the model respecting it.
type PromptBuilder struct {
	schema Schema
}

// NewPromptBuilder creates a builder emitting the given schema contract.
func NewPromptBuilder(schema Schema) *PromptBuilder {
	return &PromptBuilder{schema: schema}
}

// Schema returns the output contract the builder instructs the model with.
func (b *PromptBuilder) Schema() Schema { return b.schema }

// Build composes the full instruction text for req.
func (b *PromptBuilder) Build(req models.ExtractionRequest) string {
	s := b.schema

	parts := []string{
		"You are an assistant that extracts structured invoice data from a spoken billing request.",
		"Listen to the attached audio and respond with one field per line, nothing else.",
		"Each line is exactly 'LABEL: value' using only these labels:",
		s.Customer + ": full client name.",
		s.Address + ": client billing address.",
		s.InvoiceNumber + ": invoice number, only if dictated.",
		s.Date + ": invoice date as YYYY-MM-DD, only if dictated.",
		s.DueDate + ": payment due date as YYYY-MM-DD, only if dictated.",
		s.Currency + ": 3-letter ISO 4217 currency code, only if dictated.",
		s.Item + ": one line per billed item as description,quantity,unit price.",
		s.TaxRate + ": tax rate as a decimal fraction (e.g. 0.08), only if dictated.",
		s.Subtotal + ": sum of item totals, only if dictated.",
		s.Total + ": grand total, only if dictated.",
		s.Notes + ": any additional remarks, only if dictated.",
		"Numbers use a dot as the decimal separator and no thousands separators.",
		"Omit a line entirely when the audio does not mention that field.",
		"Never output explanations, markdown, or text outside labelled lines.",
	}

	if c := strings.TrimSpace(req.KnownCustomer); c != "" {
		parts = append(parts, "Prior context: the client is most likely "+c+".")
	}
	if t := strings.TrimSpace(req.Transcript); t != "" {
		parts = append(parts, "A transcript of the audio is provided for reference: "+t)
	}

	return strings.Join(parts, "\n")
}
