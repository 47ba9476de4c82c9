package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/invoice"
)

var invoiceColumnNames = []string{
	"id", "number", "vendor_name", "vendor_email", "vendor_address", "invoice_date",
	"subtotal", "tax_amount", "shipping_amount", "discount_amount", "deposit_amount", "total_amount",
	"status", "approved", "posted_at", "external_ref", "post_response", "tenant_id",
	"created_at", "updated_at",
}

func invoiceRow(id uuid.UUID, status invoice.Status) *sqlmock.Rows {
	return sqlmock.NewRows(invoiceColumnNames).AddRow(
		id, "INV-100", "Crestline Produce", "", "", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("100.00"), decimal.RequireFromString("13.00"),
		decimal.RequireFromString("5.00"), decimal.Zero, decimal.Zero,
		decimal.RequireFromString("118.00"),
		string(status), false, nil, nil, nil, nil,
		time.Now(), nil,
	)
}

func TestStore_GetInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()

	mock.ExpectQuery(`FROM invoices i WHERE i.id = \$1`).
		WithArgs(id).
		WillReturnRows(invoiceRow(id, invoice.StatusParsed))

	mock.ExpectQuery(`FROM line_items l`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "invoice_id", "position", "description", "units_per_case", "cases",
			"quantity", "unit_cost", "amount", "gl_code", "confidence", "corrected",
		}).AddRow(
			uuid.New(), id, 0, "2% Milk 12x1L", int64(12), int64(3),
			decimal.NewFromInt(36), decimal.RequireFromString("2.50"),
			decimal.RequireFromString("90.00"), nil, decimal.RequireFromString("0.97"), false,
		))

	store := New(db)
	inv, err := store.GetInvoice(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "INV-100", inv.Number)
	assert.Equal(t, invoice.StatusParsed, inv.Status)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "2% Milk 12x1L", inv.LineItems[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetInvoice_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()

	mock.ExpectQuery(`FROM invoices i WHERE i.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(invoiceColumnNames))

	store := New(db)
	_, err = store.GetInvoice(context.Background(), id)

	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestStore_UpdateStatus(t *testing.T) {
	t.Run("Moves", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		id := uuid.New()

		mock.ExpectExec(`UPDATE invoices`).
			WithArgs(string(invoice.StatusPushed), id, string(invoice.StatusReadyToPush)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		store := New(db)
		err = store.UpdateStatus(context.Background(), id, invoice.StatusReadyToPush, invoice.StatusPushed)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConflictWhenRowMoved", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		id := uuid.New()

		mock.ExpectExec(`UPDATE invoices`).
			WithArgs(string(invoice.StatusPushed), id, string(invoice.StatusReadyToPush)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(`SELECT status FROM invoices WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pushed"))

		store := New(db)
		err = store.UpdateStatus(context.Background(), id, invoice.StatusReadyToPush, invoice.StatusPushed)

		assert.ErrorIs(t, err, invoice.ErrConflict)
	})

	t.Run("NotFoundWhenRowGone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		id := uuid.New()

		mock.ExpectExec(`UPDATE invoices`).
			WithArgs(string(invoice.StatusPushed), id, string(invoice.StatusReadyToPush)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(`SELECT status FROM invoices WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		store := New(db)
		err = store.UpdateStatus(context.Background(), id, invoice.StatusReadyToPush, invoice.StatusPushed)

		assert.ErrorIs(t, err, invoice.ErrNotFound)
	})
}
