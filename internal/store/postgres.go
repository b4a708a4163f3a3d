package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Autofill directory ---

// ClientByName looks a client up by its normalized (lowercased, trimmed)
// name. Returns nil, nil for an unknown client.
func (s *PostgresStore) ClientByName(ctx context.Context, name string) (*models.ClientProfile, error) {
	var c models.ClientProfile
	err := s.pool.QueryRow(ctx,
		`SELECT display_name, address, default_tax_rate FROM clients WHERE name = $1`, name,
	).Scan(&c.Name, &c.Address, &c.DefaultTaxRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client by name: %w", err)
	}
	c.HasTaxRate = true
	return &c, nil
}

// PriceForDescription finds the first catalog item whose keyword appears in
// the dictated description. Returns nil, nil when nothing matches.
func (s *PostgresStore) PriceForDescription(ctx context.Context, description string) (*models.CatalogItem, error) {
	var it models.CatalogItem
	err := s.pool.QueryRow(ctx,
		`SELECT keyword, description, unit_price FROM catalog_items
		 WHERE $1 LIKE '%' || keyword || '%' ORDER BY LENGTH(keyword) DESC LIMIT 1`, description,
	).Scan(&it.Keyword, &it.Description, &it.UnitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog price: %w", err)
	}
	return &it, nil
}

// --- Invoices ---

func (s *PostgresStore) CreateInvoice(ctx context.Context, inv *Invoice) error {
	record, err := json.Marshal(inv.Record)
	if err != nil {
		return fmt.Errorf("encode invoice record: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO invoices (id, customer_name, invoice_number, currency, grand_total, confidence, record, audio_object, pdf_object, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.Record.CustomerName, inv.Record.InvoiceNumber, inv.Record.Currency,
		inv.Record.GrandTotal, inv.Confidence, record, inv.AudioObject, inv.PDFObject, inv.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, confidence, record, audio_object, pdf_object, created_at FROM invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.Confidence, &record, &inv.AudioObject, &inv.PDFObject, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := json.Unmarshal(record, &inv.Record); err != nil {
		return nil, fmt.Errorf("decode invoice record: %w", err)
	}
	return &inv, nil
}

func (s *PostgresStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.CustomerName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(customer_name) = LOWER($%d)", argIdx))
		args = append(args, filter.CustomerName)
		argIdx++
	}
	if filter.Confidence != "" {
		conditions = append(conditions, fmt.Sprintf("confidence = $%d", argIdx))
		args = append(args, filter.Confidence)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM invoices WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT id, confidence, record, audio_object, pdf_object, created_at
		 FROM invoices WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		var inv Invoice
		var record []byte
		if err := rows.Scan(&inv.ID, &inv.Confidence, &record, &inv.AudioObject, &inv.PDFObject, &inv.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		if err := json.Unmarshal(record, &inv.Record); err != nil {
			return nil, 0, fmt.Errorf("decode invoice record: %w", err)
		}
		invoices = append(invoices, &inv)
	}
	return invoices, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
