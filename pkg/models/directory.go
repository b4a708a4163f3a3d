package models

// ClientProfile is a known billing counterparty the autofill policy can
// complete an invoice from.
type ClientProfile struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	DefaultTaxRate float64 `json:"default_tax_rate"`
	HasTaxRate     bool    `json:"-"`
}

// CatalogItem is a priced product or service used to resolve a dictated
// item description to a unit price.
type CatalogItem struct {
	Keyword     string  `json:"keyword"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
}
