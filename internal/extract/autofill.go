package extract

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Directory resolves prior billing history for autofill: known clients and
// priced catalog items. A nil result with a nil error means "unknown";
// lookup errors are treated the same way so the policy stays total.
type Directory interface {
	ClientByName(ctx context.Context, name string) (*models.ClientProfile, error)
	PriceForDescription(ctx context.Context, description string) (*models.CatalogItem, error)
}

// AutofillPolicy fills required-but-unset invoice fields with an ordered
// rule set: derive from present fields, fall back to configured defaults or
// directory history, and finally mark textual fields needs-review rather
// than fabricate them. Apply is total, idempotent, and never overwrites a
// field the parser set.
type AutofillPolicy struct {
	dir      Directory
	defaults config.InvoiceConfig
	now      func() time.Time
	newTag   func() string
}

// NewAutofillPolicy creates the policy. dir may be nil, in which case the
// history rules are skipped.
func NewAutofillPolicy(dir Directory, defaults config.InvoiceConfig) *AutofillPolicy {
	return &AutofillPolicy{
		dir:      dir,
		defaults: defaults,
		now:      time.Now,
		newTag:   func() string { return uuid.NewString()[:8] },
	}
}

// Apply returns a completed copy of rec and whether any field required the
// needs-review fallback of last resort. It never returns an error.
func (p *AutofillPolicy) Apply(ctx context.Context, rec *models.InvoiceRecord) (*models.InvoiceRecord, bool) {
	out := rec.Clone()
	review := false

	p.fillFromHistory(ctx, out)

	for i := range out.Items {
		if !p.fillItem(ctx, &out.Items[i]) {
			review = true
		}
	}

	if !out.SubtotalSet {
		var sum float64
		for _, it := range out.Items {
			sum += it.Total
		}
		out.Subtotal = models.Round2(sum)
		out.SubtotalSet = true
	}
	if !out.TaxRateSet {
		out.TaxRate = p.defaults.DefaultTaxRate
		out.TaxRateSet = true
	}
	if !out.TaxAmountSet {
		out.TaxAmount = models.Round2(out.Subtotal * out.TaxRate)
		out.TaxAmountSet = true
	}
	if !out.GrandTotalSet {
		out.GrandTotal = models.Round2(out.Subtotal + out.TaxAmount)
		out.GrandTotalSet = true
	}

	if out.Currency == "" {
		out.Currency = p.defaults.DefaultCurrency
	}
	if out.InvoiceDate == "" {
		out.InvoiceDate = p.now().UTC().Format("2006-01-02")
	}
	if out.DueDate == "" {
		out.DueDate = p.dueDateFor(out.InvoiceDate)
	}
	if out.InvoiceNumber == "" {
		out.InvoiceNumber = "INV-" + strings.ReplaceAll(out.InvoiceDate, "-", "") + "-" + p.newTag()
	}

	if out.CustomerName == "" {
		out.CustomerName = models.NeedsReview
		review = true
	} else if out.CustomerName == models.NeedsReview {
		review = true
	}

	return out, review
}

// fillFromHistory completes address and tax rate from the client directory.
// Unknown clients and lookup failures just skip the rule.
func (p *AutofillPolicy) fillFromHistory(ctx context.Context, rec *models.InvoiceRecord) {
	if p.dir == nil || rec.CustomerName == "" || rec.CustomerName == models.NeedsReview {
		return
	}
	client, err := p.dir.ClientByName(ctx, normalizeName(rec.CustomerName))
	if err != nil || client == nil {
		return
	}
	if rec.CustomerAddr == "" {
		rec.CustomerAddr = client.Address
	}
	if !rec.TaxRateSet && client.HasTaxRate {
		rec.TaxRate = client.DefaultTaxRate
		rec.TaxRateSet = true
	}
}

// fillItem completes one line item, returning false when the item still
// needs human review afterwards.
func (p *AutofillPolicy) fillItem(ctx context.Context, it *models.LineItem) bool {
	complete := true

	if strings.TrimSpace(it.Description) == "" {
		it.Description = models.NeedsReview
		complete = false
	} else if it.Description == models.NeedsReview {
		complete = false
	}

	if !it.UnitPriceSet {
		switch {
		case it.TotalSet && it.Total > 0 && it.QuantitySet && it.Quantity > 0:
			it.UnitPrice = models.Round2(it.Total / it.Quantity)
			it.UnitPriceSet = true
		default:
			if item := p.lookupPrice(ctx, it.Description); item != nil {
				it.UnitPrice = item.UnitPrice
				it.UnitPriceSet = true
			}
		}
	}

	if !it.QuantitySet {
		switch {
		case it.TotalSet && it.UnitPriceSet && it.UnitPrice > 0:
			it.Quantity = models.Round2(it.Total / it.UnitPrice)
		default:
			it.Quantity = 1
		}
		it.QuantitySet = true
	}

	if !it.UnitPriceSet {
		// Nothing to derive the price from; the amount stays zero and the
		// invoice is flagged instead of guessing.
		complete = false
	}

	if !it.TotalSet {
		it.Total = models.Round2(it.Quantity * it.UnitPrice)
		it.TotalSet = true
	}

	return complete
}

func (p *AutofillPolicy) lookupPrice(ctx context.Context, description string) *models.CatalogItem {
	if p.dir == nil || description == "" || description == models.NeedsReview {
		return nil
	}
	item, err := p.dir.PriceForDescription(ctx, normalizeName(description))
	if err != nil {
		return nil
	}
	return item
}

func (p *AutofillPolicy) dueDateFor(invoiceDate string) string {
	base, err := time.Parse("2006-01-02", invoiceDate)
	if err != nil {
		base = p.now().UTC()
	}
	return base.AddDate(0, 0, p.defaults.DueInDays).Format("2006-01-02")
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
