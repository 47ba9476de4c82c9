package issue

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("issue not found")
	ErrInvalidTransition = errors.New("invalid issue transition")
	ErrUnknownType       = errors.New("unknown issue type")
)

// Type classifies the discrepancy between invoiced and received goods.
type Type string

const (
	TypeBreakage      Type = "breakage"
	TypeShortShip     Type = "short_ship"
	TypeOverShip      Type = "over_ship"
	TypeMisShip       Type = "mis_ship"
	TypePriceMismatch Type = "price_mismatch"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBreakage, TypeShortShip, TypeOverShip, TypeMisShip, TypePriceMismatch:
		return true
	}

	return false
}

// Scope decides how far an open issue blocks posting: an invoice-scoped issue
// blocks its invoice, a vendor-scoped one blocks every invoice of the vendor.
type Scope string

const (
	ScopeInvoice Scope = "invoice"
	ScopeVendor  Scope = "vendor"
)

// Status is the issue lifecycle, independent of the invoice pipeline.
type Status string

const (
	StatusOpen     Status = "open"
	StatusReported Status = "reported"
	StatusResolved Status = "resolved"
	StatusClosed   Status = "closed"
)

var transitions = map[Status][]Status{
	StatusOpen:     {StatusReported, StatusResolved},
	StatusReported: {StatusResolved},
	StatusResolved: {StatusClosed},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// Unresolved reports whether the issue still blocks preflight.
func (s Status) Unresolved() bool {
	return s == StatusOpen || s == StatusReported
}

type ResolutionType string

const (
	ResolutionCreditMemo      ResolutionType = "credit_memo"
	ResolutionReplacement     ResolutionType = "replacement"
	ResolutionPriceAdjustment ResolutionType = "price_adjustment"
	ResolutionWriteOff        ResolutionType = "write_off"
	ResolutionNoAction        ResolutionType = "no_action"
)

type ResolutionStatus string

const (
	ResolutionPending   ResolutionStatus = "pending"
	ResolutionCompleted ResolutionStatus = "completed"
)

// Issue is a recorded discrepancy against an invoice, optionally pinned to
// specific line items, with its own resolution lifecycle.
type Issue struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	VendorName  string
	Scope       Scope
	Type        Type
	Status      Status
	Description string
	LineItemIDs []uuid.UUID

	ResolutionType   ResolutionType
	ResolutionStatus ResolutionStatus
	ResolvedAt       *time.Time

	Communications []Communication

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CommKind is the channel a communication happened on.
type CommKind string

const (
	CommEmail CommKind = "email"
	CommNote  CommKind = "note"
	CommCall  CommKind = "call"
)

// Communication is one append-only audit entry on an issue. Seq is assigned
// by the store in creation order.
type Communication struct {
	ID        uuid.UUID
	IssueID   uuid.UUID
	Seq       int
	Kind      CommKind
	Content   string
	Recipient string
	CreatedAt time.Time
}
