package store

import (
	"context"
	"errors"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// Autofill directory.
	ClientByName(ctx context.Context, name string) (*models.ClientProfile, error)
	PriceForDescription(ctx context.Context, description string) (*models.CatalogItem, error)

	// Completed extractions.
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int, error)
}

// Invoice is the persisted form of one completed extraction.
type Invoice struct {
	ID          string
	Record      models.InvoiceRecord
	Confidence  string
	AudioObject string
	PDFObject   string
	CreatedAt   time.Time
}

// InvoiceFilter narrows and pages invoice listings.
type InvoiceFilter struct {
	CustomerName string
	Confidence   string
	Since        time.Time
	Page         int
	Limit        int
}
