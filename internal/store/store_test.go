package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/store"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("voiceinvoice_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// sampleRecord builds a complete invoice record for persistence tests.
func sampleRecord(customer string) models.InvoiceRecord {
	return models.InvoiceRecord{
		CustomerName:  customer,
		CustomerAddr:  "123 Elm St, Springfield, IL",
		InvoiceNumber: "INV-20260826-" + uuid.NewString()[:8],
		InvoiceDate:   "2026-08-26",
		DueDate:       "2026-09-25",
		Currency:      "USD",
		Items: []models.LineItem{
			{Description: "Wireless Mouse", Quantity: 2, QuantitySet: true,
				UnitPrice: 25.00, UnitPriceSet: true, Total: 50.00, TotalSet: true},
		},
		Subtotal: 50.00, SubtotalSet: true,
		TaxRate: 0.07, TaxRateSet: true,
		TaxAmount: 3.50, TaxAmountSet: true,
		GrandTotal: 53.50, GrandTotalSet: true,
	}
}

func newInvoice(customer, confidence string) *store.Invoice {
	return &store.Invoice{
		ID:          uuid.NewString(),
		Record:      sampleRecord(customer),
		Confidence:  confidence,
		AudioObject: uuid.NewString() + ".wav",
		PDFObject:   uuid.NewString() + ".pdf",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// --- Directory Tests ---

func TestClientByName_Seeded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	client, err := s.ClientByName(context.Background(), "john doe")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "John Doe", client.Name)
	assert.Equal(t, "123 Elm St, Springfield, IL", client.Address)
	assert.True(t, client.HasTaxRate)
	assert.InDelta(t, 0.07, client.DefaultTaxRate, 1e-9)
}

func TestClientByName_Unknown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	client, err := s.ClientByName(context.Background(), "nobody inc")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestPriceForDescription_SubstringMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	item, err := s.PriceForDescription(context.Background(), "one wireless mouse for the office")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "mouse", item.Keyword)
	assert.InDelta(t, 25.00, item.UnitPrice, 1e-9)
}

func TestPriceForDescription_LongestKeywordWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	// "software license" contains no other keyword, but make sure the longer
	// keyword is preferred when both would match.
	item, err := s.PriceForDescription(context.Background(), "annual software license renewal")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "software license", item.Keyword)
	assert.InDelta(t, 300.00, item.UnitPrice, 1e-9)
}

func TestPriceForDescription_NoMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	item, err := s.PriceForDescription(context.Background(), "unicorn polish")
	require.NoError(t, err)
	assert.Nil(t, item)
}

// --- Invoice Tests ---

func TestInvoice_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	inv := newInvoice("John Doe", models.ConfidenceHigh)
	require.NoError(t, s.CreateInvoice(ctx, inv))

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	assert.Equal(t, inv.AudioObject, got.AudioObject)
	assert.Equal(t, inv.PDFObject, got.PDFObject)
	assert.Equal(t, "John Doe", got.Record.CustomerName)
	require.Len(t, got.Record.Items, 1)
	assert.Equal(t, "Wireless Mouse", got.Record.Items[0].Description)
	assert.InDelta(t, 53.50, got.Record.GrandTotal, 1e-9)
}

func TestInvoice_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetInvoice(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvoice_CreateDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	inv := newInvoice("John Doe", models.ConfidenceHigh)
	require.NoError(t, s.CreateInvoice(ctx, inv))

	err := s.CreateInvoice(ctx, inv)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestInvoice_ListAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateInvoice(ctx, newInvoice("John Doe", models.ConfidenceHigh)))
	}

	invoices, total, err := s.ListInvoices(ctx, store.InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, invoices, 3)
}

func TestInvoice_ListFilterByCustomer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, s.CreateInvoice(ctx, newInvoice("John Doe", models.ConfidenceHigh)))
	require.NoError(t, s.CreateInvoice(ctx, newInvoice("ACME Corporation", models.ConfidenceLow)))

	invoices, total, err := s.ListInvoices(ctx, store.InvoiceFilter{CustomerName: "john doe"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, invoices, 1)
	assert.Equal(t, "John Doe", invoices[0].Record.CustomerName)
}

func TestInvoice_ListFilterByConfidence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, s.CreateInvoice(ctx, newInvoice("John Doe", models.ConfidenceHigh)))
	require.NoError(t, s.CreateInvoice(ctx, newInvoice("John Doe", models.ConfidenceLow)))

	invoices, total, err := s.ListInvoices(ctx, store.InvoiceFilter{Confidence: models.ConfidenceLow})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, invoices, 1)
	assert.Equal(t, models.ConfidenceLow, invoices[0].Confidence)
}

func TestInvoice_ListPagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateInvoice(ctx, newInvoice("John Doe", models.ConfidenceHigh)))
	}

	page1, total, err := s.ListInvoices(ctx, store.InvoiceFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page1, 2)

	page3, _, err := s.ListInvoices(ctx, store.InvoiceFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page3, 1)
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	assert.NoError(t, s.Ping(context.Background()))
}
