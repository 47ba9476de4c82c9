package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/invoice"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectInvoiceColumns = `
	i.id, i.number, i.vendor_name, i.vendor_email, i.vendor_address, i.invoice_date,
	i.subtotal, i.tax_amount, i.shipping_amount, i.discount_amount, i.deposit_amount, i.total_amount,
	i.status, i.approved, i.posted_at, i.external_ref, i.post_response, i.tenant_id,
	i.created_at, i.updated_at
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var (
		inv          invoice.Invoice
		statusStr    string
		externalRef  sql.NullString
		tenantID     sql.NullString
		postResponse []byte
	)

	if err := s.Scan(
		&inv.ID, &inv.Number, &inv.VendorName, &inv.VendorEmail, &inv.VendorAddress, &inv.InvoiceDate,
		&inv.Subtotal, &inv.Tax, &inv.Shipping, &inv.Discount, &inv.Deposit, &inv.Total,
		&statusStr, &inv.Approved, &inv.PostedAt, &externalRef, &postResponse, &tenantID,
		&inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	inv.Status = invoice.Status(statusStr)
	inv.ExternalRef = externalRef.String
	inv.TenantID = tenantID.String
	inv.PostResponse = postResponse

	return &inv, nil
}

const selectLineColumns = `
	l.id, l.invoice_id, l.position, l.description, l.units_per_case, l.cases,
	l.quantity, l.unit_cost, l.amount, l.gl_code, l.confidence, l.corrected
`

func scanLineItem(s scanner) (*invoice.LineItem, error) {
	var (
		li     invoice.LineItem
		glCode sql.NullString
	)

	if err := s.Scan(
		&li.ID, &li.InvoiceID, &li.Position, &li.Description, &li.UnitsPerCase, &li.Cases,
		&li.Quantity, &li.UnitCost, &li.Amount, &glCode, &li.Confidence, &li.Corrected,
	); err != nil {
		return nil, err
	}

	li.GLCode = glCode.String

	return &li, nil
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE i.id = $1`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	if err := s.loadLines(ctx, []*invoice.Invoice{inv}); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE i.archived_at IS NULL`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND i.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Vendor != nil {
		query += fmt.Sprintf(" AND i.vendor_name = $%d", argIdx)

		args = append(args, *filter.Vendor)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND i.invoice_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND i.invoice_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY i.invoice_date ASC, i.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invs []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	if err := s.loadLines(ctx, invs); err != nil {
		return nil, err
	}

	return invs, nil
}

func (s *Store) loadLines(ctx context.Context, invs []*invoice.Invoice) error {
	if len(invs) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*invoice.Invoice, len(invs))
	placeholders := make([]string, len(invs))
	args := make([]any, len(invs))

	for i, inv := range invs {
		byID[inv.ID] = inv
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = inv.ID
	}

	query := `SELECT ` + selectLineColumns + ` FROM line_items l
		WHERE l.invoice_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY l.invoice_id, l.position ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("loading line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return fmt.Errorf("scanning line item: %w", err)
		}

		if inv, found := byID[li.InvoiceID]; found {
			inv.LineItems = append(inv.LineItems, *li)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating line items: %w", err)
	}

	return nil
}

// UpdateStatus performs the optimistic transition: the row only moves when it
// is still in the expected status. A zero-row update is disambiguated into
// ErrNotFound vs ErrConflict with a follow-up read.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next invoice.Status) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	res, err := s.db.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if affected > 0 {
		return nil
	}

	var current string
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM invoices WHERE id = $1`, id).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return invoice.ErrNotFound
		}

		return fmt.Errorf("checking status: %w", err)
	}

	return fmt.Errorf("%w: expected %s, stored %s", invoice.ErrConflict, expected, current)
}

func (s *Store) SetApproved(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoices
		SET approved = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("approving invoice: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return invoice.ErrNotFound
	}

	return nil
}

func (s *Store) RecordPosting(ctx context.Context, id uuid.UUID, rec invoice.PostingRecord) error {
	query := `
		UPDATE invoices
		SET posted_at = $1, external_ref = $2, post_response = $3, tenant_id = $4, updated_at = NOW()
		WHERE id = $5
	`

	res, err := s.db.ExecContext(ctx, query, rec.PostedAt, rec.ExternalRef, []byte(rec.Response), nullable(rec.TenantID), id)
	if err != nil {
		return fmt.Errorf("recording posting: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return invoice.ErrNotFound
	}

	return nil
}

// invoiceColumns whitelists correction targets on invoices.
var invoiceColumns = map[string]string{
	"vendor_name":     "vendor_name",
	"vendor_email":    "vendor_email",
	"vendor_address":  "vendor_address",
	"invoice_number":  "number",
	"subtotal":        "subtotal",
	"tax_amount":      "tax_amount",
	"shipping_amount": "shipping_amount",
	"discount_amount": "discount_amount",
	"deposit_amount":  "deposit_amount",
	"total_amount":    "total_amount",
}

var lineColumns = map[string]string{
	"description": "description",
	"quantity":    "quantity",
	"unit_cost":   "unit_cost",
	"amount":      "amount",
	"gl_code":     "gl_code",
}

// ApplyCorrection writes the corrected value, flags the line item, upserts the
// vendor's correction counter and appends the vendor correction record in one
// transaction.
func (s *Store) ApplyCorrection(ctx context.Context, c invoice.Correction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if c.LineItemID != nil {
		column, found := lineColumns[c.Field]
		if !found {
			return fmt.Errorf("%w: %q", invoice.ErrUnknownField, c.Field)
		}

		query := fmt.Sprintf(`UPDATE line_items SET %s = $1, corrected = TRUE WHERE id = $2 AND invoice_id = $3`, column)
		if _, err := dbTx.ExecContext(ctx, query, c.NewValue, *c.LineItemID, c.InvoiceID); err != nil {
			return fmt.Errorf("correcting line item: %w", err)
		}
	} else {
		column, found := invoiceColumns[c.Field]
		if !found {
			return fmt.Errorf("%w: %q", invoice.ErrUnknownField, c.Field)
		}

		query := fmt.Sprintf(`UPDATE invoices SET %s = $1, updated_at = NOW() WHERE id = $2`, column)
		if _, err := dbTx.ExecContext(ctx, query, c.NewValue, c.InvoiceID); err != nil {
			return fmt.Errorf("correcting invoice: %w", err)
		}
	}

	vendorQuery := `
		INSERT INTO vendors (name, corrected_fields)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET corrected_fields = vendors.corrected_fields + 1, updated_at = NOW()
		RETURNING id
	`

	var vendorID uuid.UUID
	if err := dbTx.QueryRowContext(ctx, vendorQuery, c.VendorName).Scan(&vendorID); err != nil {
		return fmt.Errorf("upserting vendor: %w", err)
	}

	correctionQuery := `
		INSERT INTO vendor_corrections (vendor_id, invoice_id, line_item_id, field, old_value, new_value, corrected_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	if _, err := dbTx.ExecContext(ctx, correctionQuery,
		vendorID, c.InvoiceID, c.LineItemID, c.Field, c.OldValue, c.NewValue, nullable(c.CorrectedBy),
	); err != nil {
		return fmt.Errorf("appending vendor correction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing correction: %w", err)
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ingestLockKey serializes concurrent ingests of overlapping batches.
func ingestLockKey(keys []invoice.IngestKey) int64 {
	sorted := make([]string, len(keys))
	for i, k := range keys {
		sorted[i] = k.VendorName + "\x00" + k.Number
	}

	sort.Strings(sorted)

	h := fnv.New64a()
	for _, k := range sorted {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}

	return int64(h.Sum64())
}

type ingestTx struct {
	tx *sql.Tx
}

func (s *Store) BeginIngest(ctx context.Context) (invoice.IngestTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ingest tx: %w", err)
	}

	return &ingestTx{tx: dbTx}, nil
}

func (itx *ingestTx) Commit() error   { return itx.tx.Commit() }
func (itx *ingestTx) Rollback() error { return itx.tx.Rollback() }

func (itx *ingestTx) FindExisting(ctx context.Context, keys []invoice.IngestKey) ([]*invoice.Invoice, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	if _, err := itx.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", ingestLockKey(keys)); err != nil {
		return nil, fmt.Errorf("acquiring ingest lock: %w", err)
	}

	pairs := make([]string, len(keys))
	args := make([]any, 0, len(keys)*2)

	for i, k := range keys {
		pairs[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, k.VendorName, k.Number)
	}

	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i
		WHERE (i.vendor_name, i.number) IN (` + strings.Join(pairs, ", ") + `)`

	rows, err := itx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding existing invoices: %w", err)
	}
	defer rows.Close()

	var existing []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		existing = append(existing, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing invoices: %w", err)
	}

	return existing, nil
}

func (itx *ingestTx) CreateInvoices(ctx context.Context, invs []*invoice.Invoice) error {
	invoiceQuery := `
		INSERT INTO invoices (number, vendor_name, vendor_email, vendor_address, invoice_date,
			subtotal, tax_amount, shipping_amount, discount_amount, deposit_amount, total_amount,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	lineQuery := `
		INSERT INTO line_items (invoice_id, position, description, units_per_case, cases,
			quantity, unit_cost, amount, gl_code, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	vendorQuery := `
		INSERT INTO vendors (name, email, address, extracted_fields)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET extracted_fields = vendors.extracted_fields + EXCLUDED.extracted_fields, updated_at = NOW()
	`

	for _, inv := range invs {
		err := itx.tx.QueryRowContext(ctx, invoiceQuery,
			inv.Number, inv.VendorName, inv.VendorEmail, inv.VendorAddress, inv.InvoiceDate,
			inv.Subtotal, inv.Tax, inv.Shipping, inv.Discount, inv.Deposit, inv.Total,
			inv.Status,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating invoice: %w", err)
		}

		for i := range inv.LineItems {
			li := &inv.LineItems[i]
			li.InvoiceID = inv.ID

			err := itx.tx.QueryRowContext(ctx, lineQuery,
				inv.ID, li.Position, li.Description, li.UnitsPerCase, li.Cases,
				li.Quantity, li.UnitCost, li.Amount, nullable(li.GLCode), li.Confidence,
			).Scan(&li.ID)
			if err != nil {
				return fmt.Errorf("creating line item: %w", err)
			}
		}

		if _, err := itx.tx.ExecContext(ctx, vendorQuery,
			inv.VendorName, inv.VendorEmail, inv.VendorAddress, extractedFieldCount(inv),
		); err != nil {
			return fmt.Errorf("updating vendor counters: %w", err)
		}
	}

	return nil
}

// extractedFieldCount is how many machine-extracted fields an invoice carries,
// the denominator of the vendor accuracy rate.
func extractedFieldCount(inv *invoice.Invoice) int64 {
	const invoiceFields = 8  // number, vendor identity, date, monetary fields
	const lineItemFields = 5 // description, quantity, unit cost, amount, gl code

	return invoiceFields + lineItemFields*int64(len(inv.LineItems))
}
