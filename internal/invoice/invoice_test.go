package invoice_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/caldervale/ledgerline/internal/invoice"
)

func TestStatus_CanTransition(t *testing.T) {
	allStatuses := []invoice.Status{
		invoice.StatusIngested,
		invoice.StatusParsed,
		invoice.StatusNeedsReview,
		invoice.StatusReadyToPush,
		invoice.StatusPushed,
		invoice.StatusPosted,
		invoice.StatusFailed,
	}

	legal := map[invoice.Status][]invoice.Status{
		invoice.StatusIngested:    {invoice.StatusParsed},
		invoice.StatusParsed:      {invoice.StatusNeedsReview, invoice.StatusReadyToPush},
		invoice.StatusNeedsReview: {invoice.StatusReadyToPush},
		invoice.StatusReadyToPush: {invoice.StatusPushed, invoice.StatusFailed},
		invoice.StatusPushed:      {invoice.StatusPosted, invoice.StatusFailed},
		invoice.StatusFailed:      {invoice.StatusReadyToPush},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}

			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, invoice.StatusPosted.Terminal())

	for _, s := range []invoice.Status{
		invoice.StatusIngested,
		invoice.StatusParsed,
		invoice.StatusNeedsReview,
		invoice.StatusReadyToPush,
		invoice.StatusPushed,
		invoice.StatusFailed,
	} {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, invoice.StatusIngested.Valid())
	assert.True(t, invoice.StatusPosted.Valid())
	assert.False(t, invoice.Status("shipped").Valid())
	assert.False(t, invoice.Status("").Valid())
}

func TestInvoice_ExpectedTotal(t *testing.T) {
	inv := invoice.Invoice{
		Subtotal: decimal.NewFromInt(100),
		Tax:      decimal.NewFromInt(13),
		Shipping: decimal.NewFromInt(5),
		Discount: decimal.NewFromInt(10),
		Deposit:  decimal.NewFromInt(50),
	}

	// Deposit is informational and never enters the reconciliation.
	assert.True(t, inv.ExpectedTotal().Equal(decimal.NewFromInt(108)))
}

func TestLineItem_QuantityConsistent(t *testing.T) {
	tests := []struct {
		name string
		li   invoice.LineItem
		want bool
	}{
		{
			name: "MatchingDecomposition",
			li: invoice.LineItem{
				UnitsPerCase: new(int64(12)),
				Cases:        new(int64(3)),
				Quantity:     decimal.NewFromInt(36),
			},
			want: true,
		},
		{
			name: "MismatchedDecomposition",
			li: invoice.LineItem{
				UnitsPerCase: new(int64(12)),
				Cases:        new(int64(3)),
				Quantity:     decimal.NewFromInt(30),
			},
			want: false,
		},
		{
			name: "NoDecomposition",
			li: invoice.LineItem{
				Quantity: decimal.NewFromInt(7),
			},
			want: true,
		},
		{
			name: "PartialDecomposition",
			li: invoice.LineItem{
				Cases:    new(int64(3)),
				Quantity: decimal.NewFromInt(3),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.li.QuantityConsistent())
		})
	}
}

func TestLineItem_ExpectedAmount(t *testing.T) {
	li := invoice.LineItem{
		Quantity: decimal.NewFromInt(4),
		UnitCost: decimal.RequireFromString("2.25"),
	}

	assert.True(t, li.ExpectedAmount().Equal(decimal.NewFromInt(9)))
}
