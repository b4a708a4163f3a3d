package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// ReasonMissingMarkers is the ParseError reason when the raw output contains
// none of the schema markers at all.
const ReasonMissingMarkers = "missing-schema-markers"

// ParseError means the model produced output the parser cannot use. It is a
// client-visible bad-input condition, never retried; Raw is attached for
// diagnosis.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model output: %s", e.Reason)
}

// amountPattern is the locale-agnostic number format: digits plus an
// optional dot-separated decimal part. Thousands separators are rejected
// outright rather than guessed at.
var amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Parser turns raw model text into an invoice record. It tolerates drift
// the model is prone to (stray whitespace, label casing) but refuses output
// with no recognizable schema markers.
type Parser struct {
	schema Schema
}

// NewParser creates a parser for the given schema contract.
func NewParser(schema Schema) *Parser {
	return &Parser{schema: schema}
}

// Parse populates an InvoiceRecord from raw tagged-field output. A field
// whose value cannot be parsed (e.g., a malformed number) is left unset for
// the autofill policy rather than failing the whole extraction. Line items
// keep their dictation order.
func (p *Parser) Parse(raw string) (*models.InvoiceRecord, error) {
	rec := &models.InvoiceRecord{}
	markers := 0

	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := splitLabelled(line)
		if !ok {
			continue
		}

		switch label {
		case strings.ToUpper(p.schema.Customer):
			markers++
			rec.CustomerName = value
		case strings.ToUpper(p.schema.Address):
			markers++
			rec.CustomerAddr = value
		case strings.ToUpper(p.schema.InvoiceNumber):
			markers++
			rec.InvoiceNumber = value
		case strings.ToUpper(p.schema.Date):
			markers++
			if datePattern.MatchString(value) {
				rec.InvoiceDate = value
			}
		case strings.ToUpper(p.schema.DueDate):
			markers++
			if datePattern.MatchString(value) {
				rec.DueDate = value
			}
		case strings.ToUpper(p.schema.Currency):
			markers++
			if currencyPattern.MatchString(value) {
				rec.Currency = strings.ToUpper(value)
			}
		case strings.ToUpper(p.schema.Item):
			markers++
			rec.Items = append(rec.Items, parseItem(value))
		case strings.ToUpper(p.schema.TaxRate):
			markers++
			if v, ok := parseAmount(value); ok && v >= 0 && v <= 1 {
				rec.TaxRate = v
				rec.TaxRateSet = true
			}
		case strings.ToUpper(p.schema.Subtotal):
			markers++
			if v, ok := parseAmount(value); ok {
				rec.Subtotal = v
				rec.SubtotalSet = true
			}
		case strings.ToUpper(p.schema.Total):
			markers++
			if v, ok := parseAmount(value); ok {
				rec.GrandTotal = v
				rec.GrandTotalSet = true
			}
		case strings.ToUpper(p.schema.Notes):
			markers++
			rec.Notes = value
		}
	}

	if markers == 0 {
		return nil, &ParseError{Reason: ReasonMissingMarkers, Raw: raw}
	}
	return rec, nil
}

// splitLabelled splits "LABEL: value" into its normalized label and trimmed
// value. Labels are matched case-insensitively and tolerate surrounding
// whitespace.
func splitLabelled(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	label = strings.ToUpper(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// parseItem parses repeated "description,quantity,unit price" values.
// Unparseable numeric parts leave the field unset instead of failing.
func parseItem(value string) models.LineItem {
	parts := strings.Split(value, ",")
	item := models.LineItem{Description: strings.TrimSpace(parts[0])}

	if len(parts) > 1 {
		if v, ok := parseAmount(parts[1]); ok {
			item.Quantity = v
			item.QuantitySet = true
		}
	}
	if len(parts) > 2 {
		if v, ok := parseAmount(parts[2]); ok {
			item.UnitPrice = v
			item.UnitPriceSet = true
		}
	}
	if len(parts) > 3 {
		if v, ok := parseAmount(parts[3]); ok {
			item.Total = v
			item.TotalSet = true
		}
	}
	return item
}

// parseAmount parses a locale-agnostic decimal. Anything outside the exact
// digit-and-decimal-point format (thousands separators, currency symbols,
// spelled-out numbers) is rejected and the field stays unset.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
