package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/vendors"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectVendorColumns = `
	v.id, v.name, v.email, v.address, v.extracted_fields, v.corrected_fields, v.created_at, v.updated_at
`

func scanVendor(s scanner) (*vendor.Vendor, error) {
	var (
		v       vendor.Vendor
		email   sql.NullString
		address sql.NullString
	)

	if err := s.Scan(
		&v.ID, &v.Name, &email, &address, &v.ExtractedFields, &v.CorrectedFields, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	v.Email = email.String
	v.Address = address.String

	return &v, nil
}

func (s *Store) GetVendor(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	query := `SELECT ` + selectVendorColumns + ` FROM vendors v WHERE v.id = $1`

	v, err := scanVendor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, vendor.ErrNotFound
		}

		return nil, fmt.Errorf("getting vendor: %w", err)
	}

	return v, nil
}

func (s *Store) ListVendors(ctx context.Context) ([]*vendor.Vendor, error) {
	query := `SELECT ` + selectVendorColumns + ` FROM vendors v ORDER BY v.name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*vendor.Vendor

	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}

		vendors = append(vendors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vendors: %w", err)
	}

	return vendors, nil
}

func (s *Store) ListCorrections(ctx context.Context, vendorID uuid.UUID) ([]*vendor.Correction, error) {
	query := `
		SELECT id, vendor_id, invoice_id, line_item_id, field, old_value, new_value, corrected_by, created_at
		FROM vendor_corrections
		WHERE vendor_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("listing corrections: %w", err)
	}
	defer rows.Close()

	var corrections []*vendor.Correction

	for rows.Next() {
		var (
			c           vendor.Correction
			correctedBy sql.NullString
		)

		if err := rows.Scan(
			&c.ID, &c.VendorID, &c.InvoiceID, &c.LineItemID, &c.Field, &c.OldValue, &c.NewValue, &correctedBy, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning correction: %w", err)
		}

		c.CorrectedBy = correctedBy.String
		corrections = append(corrections, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corrections: %w", err)
	}

	return corrections, nil
}
