// Package pdf renders a finalized invoice record into PDF bytes. Rendering
// is a pure function of the record; it performs no I/O and no mutation.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Render lays out the invoice on an A4 page and returns the document bytes.
// The record must already be complete (post-autofill); Render does not
// validate or recompute totals.
func Render(rec *models.InvoiceRecord) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.Cell(0, 12, "INVOICE")
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, "Invoice #: "+rec.InvoiceNumber)
	doc.Ln(6)
	doc.Cell(0, 6, "Date: "+rec.InvoiceDate)
	doc.Ln(6)
	doc.Cell(0, 6, "Due Date: "+rec.DueDate)
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 6, "Bill To:")
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, rec.CustomerName)
	doc.Ln(6)
	if rec.CustomerAddr != "" {
		doc.Cell(0, 6, rec.CustomerAddr)
		doc.Ln(6)
	}
	doc.Ln(6)

	renderItems(doc, rec)
	renderTotals(doc, rec)

	if rec.Notes != "" {
		doc.Ln(8)
		doc.SetFont("Helvetica", "B", 12)
		doc.Cell(0, 6, "Notes:")
		doc.Ln(6)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, rec.Notes, "", "L", false)
	}

	doc.Ln(12)
	doc.SetFont("Helvetica", "I", 10)
	doc.Cell(0, 6, "Thank you for your business!")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderItems(doc *fpdf.Fpdf, rec *models.InvoiceRecord) {
	if len(rec.Items) == 0 {
		return
	}

	colWidths := []float64{80, 25, 30, 35}
	headers := []string{"Description", "Quantity", "Unit Price", "Total"}

	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(173, 216, 230)
	for i, h := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		doc.CellFormat(colWidths[i], 8, h, "1", 0, align, true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 11)
	doc.SetFillColor(240, 248, 255)
	for _, it := range rec.Items {
		doc.CellFormat(colWidths[0], 8, it.Description, "1", 0, "L", true, 0, "")
		doc.CellFormat(colWidths[1], 8, fmt.Sprintf("%.2f", it.Quantity), "1", 0, "R", true, 0, "")
		doc.CellFormat(colWidths[2], 8, money(rec.Currency, it.UnitPrice), "1", 0, "R", true, 0, "")
		doc.CellFormat(colWidths[3], 8, money(rec.Currency, it.Total), "1", 0, "R", true, 0, "")
		doc.Ln(-1)
	}
	doc.Ln(4)
}

func renderTotals(doc *fpdf.Fpdf, rec *models.InvoiceRecord) {
	rows := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal:", money(rec.Currency, rec.Subtotal), false},
		{fmt.Sprintf("Tax (%.0f%%):", rec.TaxRate*100), money(rec.Currency, rec.TaxAmount), false},
		{"Grand Total:", money(rec.Currency, rec.GrandTotal), true},
	}

	for _, row := range rows {
		if row.bold {
			doc.SetFont("Helvetica", "B", 11)
		} else {
			doc.SetFont("Helvetica", "", 11)
		}
		doc.CellFormat(135, 7, row.label, "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, row.value, "", 0, "R", false, 0, "")
		doc.Ln(-1)
	}
}

func money(currency string, v float64) string {
	return fmt.Sprintf("%s %.2f", currency, v)
}
