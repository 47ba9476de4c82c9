package invoice

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("invoice not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("invoice modified concurrently")
	ErrNotApproved       = errors.New("invoice requires approval")
	ErrUnknownField      = errors.New("unknown correction field")
)

// Status is the pipeline stage of an invoice.
type Status string

const (
	StatusIngested    Status = "ingested"
	StatusParsed      Status = "parsed"
	StatusNeedsReview Status = "needs_review"
	StatusReadyToPush Status = "ready_to_push"
	StatusPushed      Status = "pushed"
	StatusPosted      Status = "posted"
	StatusFailed      Status = "failed"
)

// transitions is the full set of legal pipeline edges. posted is terminal.
var transitions = map[Status][]Status{
	StatusIngested:    {StatusParsed},
	StatusParsed:      {StatusNeedsReview, StatusReadyToPush},
	StatusNeedsReview: {StatusReadyToPush},
	StatusReadyToPush: {StatusPushed, StatusFailed},
	StatusPushed:      {StatusPosted, StatusFailed},
	StatusFailed:      {StatusReadyToPush},
}

// Valid reports whether s is one of the known pipeline stages.
func (s Status) Valid() bool {
	switch s {
	case StatusIngested, StatusParsed, StatusNeedsReview, StatusReadyToPush,
		StatusPushed, StatusPosted, StatusFailed:
		return true
	}

	return false
}

// CanTransition reports whether the edge s -> to exists in the pipeline.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// Terminal reports whether no edge leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Invoice is a vendor invoice moving through the ingestion -> posting pipeline.
// Invoices are never deleted; failed postings keep their history.
type Invoice struct {
	ID            uuid.UUID
	Number        string
	VendorName    string
	VendorEmail   string
	VendorAddress string
	InvoiceDate   time.Time

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Deposit  decimal.Decimal
	Total    decimal.Decimal

	Status   Status
	Approved bool

	PostedAt     *time.Time
	ExternalRef  string
	PostResponse json.RawMessage
	TenantID     string

	LineItems []LineItem

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ExpectedTotal is what Total should reconcile to within tolerance:
// subtotal + tax + shipping - discount.
func (inv *Invoice) ExpectedTotal() decimal.Decimal {
	return inv.Subtotal.Add(inv.Tax).Add(inv.Shipping).Sub(inv.Discount)
}

// LineItem is one extracted line of an invoice. Quantity may be decomposed
// into units-per-case and cases; when both are present the product must equal
// Quantity.
type LineItem struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	Position     int
	Description  string
	UnitsPerCase *int64
	Cases        *int64
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Amount       decimal.Decimal
	GLCode       string
	Confidence   decimal.Decimal
	Corrected    bool
}

// QuantityConsistent reports whether the units/cases decomposition matches
// Quantity. Items without a full decomposition are trivially consistent.
func (li *LineItem) QuantityConsistent() bool {
	if li.UnitsPerCase == nil || li.Cases == nil {
		return true
	}

	product := decimal.NewFromInt(*li.UnitsPerCase).Mul(decimal.NewFromInt(*li.Cases))

	return product.Equal(li.Quantity)
}

// ExpectedAmount is quantity * unit cost, reconciled against Amount within
// tolerance by the preflight engine.
func (li *LineItem) ExpectedAmount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitCost)
}
