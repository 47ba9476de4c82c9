package vendor

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("vendor not found")

// Vendor aggregates the extraction track record of one supplier. Corrected
// and extracted field counters are maintained by ingestion and corrections;
// the accuracy rate is derived, never stored.
type Vendor struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Address         string
	ExtractedFields int64
	CorrectedFields int64
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// AccuracyRate is the share of extracted fields that never needed a manual
// correction. A vendor with no extractions has rate 1.
func (v *Vendor) AccuracyRate() decimal.Decimal {
	if v.ExtractedFields == 0 {
		return decimal.NewFromInt(1)
	}

	corrected := decimal.NewFromInt(v.CorrectedFields)
	extracted := decimal.NewFromInt(v.ExtractedFields)

	return decimal.NewFromInt(1).Sub(corrected.DivRound(extracted, 4))
}

// Correction is one append-only record of a reviewer fixing an extracted
// field. Recurring patterns per vendor feed normalization rules downstream.
type Correction struct {
	ID          uuid.UUID
	VendorID    uuid.UUID
	InvoiceID   uuid.UUID
	LineItemID  *uuid.UUID
	Field       string
	OldValue    string
	NewValue    string
	CorrectedBy string
	CreatedAt   time.Time
}
