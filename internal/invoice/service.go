package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*Invoice, error)

	// UpdateStatus moves the invoice from expected to next. It must fail with
	// ErrConflict when the stored status is no longer expected, and with
	// ErrNotFound when the id is unknown.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next Status) error

	SetApproved(ctx context.Context, id uuid.UUID) error
	RecordPosting(ctx context.Context, id uuid.UUID, rec PostingRecord) error

	// ApplyCorrection updates the corrected field, marks the line item as
	// corrected when one is targeted, and appends a vendor correction record,
	// all in one transaction.
	ApplyCorrection(ctx context.Context, c Correction) error

	BeginIngest(ctx context.Context) (IngestTx, error)
}

type IngestTx interface {
	FindExisting(ctx context.Context, keys []IngestKey) ([]*Invoice, error)
	CreateInvoices(ctx context.Context, invs []*Invoice) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	Status    *Status
	Vendor    *string
	StartDate *time.Time
	EndDate   *time.Time
}

type PostingRecord struct {
	PostedAt    time.Time
	ExternalRef string
	Response    json.RawMessage
	TenantID    string
}

// Correction is a reviewer's fix to one extracted field. Corrections feed the
// vendor accuracy ledger; the original value is kept for it.
type Correction struct {
	InvoiceID   uuid.UUID
	LineItemID  *uuid.UUID
	VendorName  string
	Field       string
	OldValue    string
	NewValue    string
	CorrectedBy string
}

type LineParams struct {
	Description  string
	UnitsPerCase *int64
	Cases        *int64
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Amount       decimal.Decimal
	GLCode       string
	Confidence   decimal.Decimal
}

type CreateParams struct {
	Number        string
	VendorName    string
	VendorEmail   string
	VendorAddress string
	InvoiceDate   time.Time
	Status        Status

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Deposit  decimal.Decimal
	Total    decimal.Decimal

	Lines []LineParams
}

// IngestKey identifies an invoice for duplicate detection during ingestion.
type IngestKey struct {
	VendorName string
	Number     string
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

// UpdateStatus validates the edge against the transition table before touching
// storage, so an illegal request never reaches the database. The expected
// status doubles as the optimistic-concurrency check.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next Status) error {
	if !expected.Valid() || !next.Valid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, next)
	}

	if !expected.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, next)
	}

	if expected == StatusNeedsReview && next == StatusReadyToPush {
		inv, err := s.repo.GetInvoice(ctx, id)
		if err != nil {
			return err
		}

		if !inv.Approved {
			return ErrNotApproved
		}
	}

	return s.repo.UpdateStatus(ctx, id, expected, next)
}

// Approve records reviewer sign-off. Approval is not a pipeline stage: it
// gates the needs_review -> ready_to_push edge and survives a failed-post
// retry cycle.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	if err := s.repo.SetApproved(ctx, id); err != nil {
		return nil, err
	}

	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) RecordPosting(ctx context.Context, id uuid.UUID, rec PostingRecord) error {
	return s.repo.RecordPosting(ctx, id, rec)
}

// monetary invoice fields a reviewer may correct.
var decimalInvoiceFields = map[string]bool{
	"subtotal":        true,
	"tax_amount":      true,
	"shipping_amount": true,
	"discount_amount": true,
	"deposit_amount":  true,
	"total_amount":    true,
}

var textInvoiceFields = map[string]bool{
	"vendor_name":    true,
	"vendor_email":   true,
	"vendor_address": true,
	"invoice_number": true,
}

var lineFields = map[string]bool{
	"description": true,
	"quantity":    true,
	"unit_cost":   true,
	"amount":      true,
	"gl_code":     true,
}

// ApplyCorrection validates the field name and value, persists the fix and
// returns the updated invoice. The old value is captured here so the vendor
// correction record is complete even when the caller did not supply it.
func (s *Service) ApplyCorrection(ctx context.Context, c Correction) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, c.InvoiceID)
	if err != nil {
		return nil, err
	}

	c.Field = strings.ToLower(strings.TrimSpace(c.Field))
	c.VendorName = inv.VendorName

	if c.LineItemID != nil {
		if !lineFields[c.Field] {
			return nil, fmt.Errorf("%w: line item field %q", ErrUnknownField, c.Field)
		}

		li := findLine(inv, *c.LineItemID)
		if li == nil {
			return nil, fmt.Errorf("%w: line item %s", ErrNotFound, *c.LineItemID)
		}

		if c.OldValue == "" {
			c.OldValue = lineFieldValue(li, c.Field)
		}
	} else {
		if !decimalInvoiceFields[c.Field] && !textInvoiceFields[c.Field] {
			return nil, fmt.Errorf("%w: invoice field %q", ErrUnknownField, c.Field)
		}

		if c.OldValue == "" {
			c.OldValue = invoiceFieldValue(inv, c.Field)
		}
	}

	if decimalInvoiceFields[c.Field] || (c.LineItemID != nil && c.Field != "description" && c.Field != "gl_code") {
		if _, err := decimal.NewFromString(c.NewValue); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", c.Field, err)
		}
	}

	if err := s.repo.ApplyCorrection(ctx, c); err != nil {
		return nil, err
	}

	return s.repo.GetInvoice(ctx, c.InvoiceID)
}

func findLine(inv *Invoice, id uuid.UUID) *LineItem {
	for i := range inv.LineItems {
		if inv.LineItems[i].ID == id {
			return &inv.LineItems[i]
		}
	}

	return nil
}

func invoiceFieldValue(inv *Invoice, field string) string {
	switch field {
	case "vendor_name":
		return inv.VendorName
	case "vendor_email":
		return inv.VendorEmail
	case "vendor_address":
		return inv.VendorAddress
	case "invoice_number":
		return inv.Number
	case "subtotal":
		return inv.Subtotal.String()
	case "tax_amount":
		return inv.Tax.String()
	case "shipping_amount":
		return inv.Shipping.String()
	case "discount_amount":
		return inv.Discount.String()
	case "deposit_amount":
		return inv.Deposit.String()
	case "total_amount":
		return inv.Total.String()
	}

	return ""
}

func lineFieldValue(li *LineItem, field string) string {
	switch field {
	case "description":
		return li.Description
	case "quantity":
		return li.Quantity.String()
	case "unit_cost":
		return li.UnitCost.String()
	case "amount":
		return li.Amount.String()
	case "gl_code":
		return li.GLCode
	}

	return ""
}

type IngestResult struct {
	Created    []*Invoice
	Duplicates []*Invoice
}

// Ingest creates a batch of invoices from the extraction feed. Invoices whose
// vendor + number already exist are reported as duplicates and skipped; the
// rest are created in one transaction.
func (s *Service) Ingest(ctx context.Context, params []CreateParams) (*IngestResult, error) {
	if len(params) == 0 {
		return &IngestResult{}, nil
	}

	keys := make([]IngestKey, len(params))
	for i, p := range params {
		keys[i] = IngestKey{VendorName: p.VendorName, Number: p.Number}
	}

	itx, err := s.repo.BeginIngest(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ingest: %w", err)
	}
	defer itx.Rollback()

	existing, err := itx.FindExisting(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("find existing: %w", err)
	}

	lookup := make(map[IngestKey]*Invoice, len(existing))
	for _, inv := range existing {
		lookup[IngestKey{VendorName: inv.VendorName, Number: inv.Number}] = inv
	}

	result := &IngestResult{}

	var fresh []*Invoice

	for _, p := range params {
		if dup, found := lookup[IngestKey{VendorName: p.VendorName, Number: p.Number}]; found {
			result.Duplicates = append(result.Duplicates, dup)
			continue
		}

		fresh = append(fresh, paramsToInvoice(p))
	}

	if len(fresh) > 0 {
		if err := itx.CreateInvoices(ctx, fresh); err != nil {
			return nil, fmt.Errorf("create invoices: %w", err)
		}
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingest: %w", err)
	}

	result.Created = fresh

	return result, nil
}

func paramsToInvoice(p CreateParams) *Invoice {
	status := p.Status
	if status == "" {
		status = StatusIngested
	}

	inv := &Invoice{
		Number:        p.Number,
		VendorName:    p.VendorName,
		VendorEmail:   p.VendorEmail,
		VendorAddress: p.VendorAddress,
		InvoiceDate:   p.InvoiceDate,
		Subtotal:      p.Subtotal,
		Tax:           p.Tax,
		Shipping:      p.Shipping,
		Discount:      p.Discount,
		Deposit:       p.Deposit,
		Total:         p.Total,
		Status:        status,
	}

	for i, l := range p.Lines {
		inv.LineItems = append(inv.LineItems, LineItem{
			Position:     i,
			Description:  l.Description,
			UnitsPerCase: l.UnitsPerCase,
			Cases:        l.Cases,
			Quantity:     l.Quantity,
			UnitCost:     l.UnitCost,
			Amount:       l.Amount,
			GLCode:       l.GLCode,
			Confidence:   l.Confidence,
		})
	}

	return inv
}
