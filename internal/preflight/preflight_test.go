package preflight_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/issue"
	"github.com/caldervale/ledgerline/internal/preflight"
)

// Stub sources

type stubInvoices map[uuid.UUID]*invoice.Invoice

func (s stubInvoices) Get(_ context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	inv, found := s[id]
	if !found {
		return nil, invoice.ErrNotFound
	}

	return inv, nil
}

type stubIssues []*issue.Issue

func (s stubIssues) List(_ context.Context, filter issue.ListFilter) ([]*issue.Issue, error) {
	if !filter.Unresolved {
		return s, nil
	}

	var out []*issue.Issue
	for _, iss := range s {
		if iss.Status.Unresolved() {
			out = append(out, iss)
		}
	}

	return out, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// cleanInvoice reconciles by construction: 100 + 13 + 5 - 0 = 118.
func cleanInvoice(id uuid.UUID, vendor string) *invoice.Invoice {
	return &invoice.Invoice{
		ID:         id,
		Number:     "INV-" + id.String()[:8],
		VendorName: vendor,
		Status:     invoice.StatusReadyToPush,
		Subtotal:   d("100.00"),
		Tax:        d("13.00"),
		Shipping:   d("5.00"),
		Total:      d("118.00"),
		LineItems: []invoice.LineItem{
			{
				Quantity:   d("4"),
				UnitCost:   d("25.00"),
				Amount:     d("100.00"),
				Confidence: d("0.98"),
			},
		},
	}
}

func newEngine(invs stubInvoices, issues stubIssues) *preflight.Engine {
	return preflight.NewEngine(invs, issues, preflight.Options{})
}

func TestEngine_Check_AllReady(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	invs := stubInvoices{
		a: cleanInvoice(a, "Crestline Produce"),
		b: cleanInvoice(b, "Harbor Dairy"),
	}

	resp, err := newEngine(invs, nil).Check(context.Background(), []uuid.UUID{a, b})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, resp.ReadyIDs)
	assert.Empty(t, resp.Findings)
	assert.Empty(t, resp.BlockingVendors)
}

func TestEngine_Check_Deterministic(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	invs := stubInvoices{
		a: cleanInvoice(a, "Crestline Produce"),
		b: cleanInvoice(b, "Harbor Dairy"),
		c: cleanInvoice(c, "Eastway Paper"),
	}

	engine := newEngine(invs, nil)

	first, err := engine.Check(context.Background(), []uuid.UUID{c, a, b})
	require.NoError(t, err)

	second, err := engine.Check(context.Background(), []uuid.UUID{c, a, b})
	require.NoError(t, err)

	// Same batch, same order in, same order out.
	assert.Equal(t, []uuid.UUID{c, a, b}, first.ReadyIDs)
	assert.Equal(t, first, second)
}

func TestEngine_Check_DuplicateIDs(t *testing.T) {
	a := uuid.New()
	invs := stubInvoices{a: cleanInvoice(a, "Crestline Produce")}

	resp, err := newEngine(invs, nil).Check(context.Background(), []uuid.UUID{a, a, a})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, resp.ReadyIDs)
}

func TestEngine_Check_UnknownInvoice(t *testing.T) {
	missing := uuid.New()

	resp, err := newEngine(stubInvoices{}, nil).Check(context.Background(), []uuid.UUID{missing})

	require.NoError(t, err)
	assert.Empty(t, resp.ReadyIDs)
	require.Len(t, resp.Findings, 1)
	assert.Equal(t, preflight.SeverityBlocking, resp.Findings[0].Severity)
}

func TestEngine_Check_StatusGating(t *testing.T) {
	type testCase struct {
		name   string
		status invoice.Status
		ready  bool
	}

	tests := []testCase{
		{name: "ReadyToPush", status: invoice.StatusReadyToPush, ready: true},
		{name: "NeedsReview", status: invoice.StatusNeedsReview},
		{name: "Parsed", status: invoice.StatusParsed},
		{name: "Posted", status: invoice.StatusPosted},
		{name: "Failed", status: invoice.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			inv := cleanInvoice(id, "Crestline Produce")
			inv.Status = tt.status

			resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
			require.NoError(t, err)

			if tt.ready {
				assert.Equal(t, []uuid.UUID{id}, resp.ReadyIDs)
				return
			}

			assert.Empty(t, resp.ReadyIDs)
			assert.NotEmpty(t, resp.Findings)
		})
	}
}

func TestEngine_Check_TotalReconciliation(t *testing.T) {
	t.Run("WithinTolerance", func(t *testing.T) {
		id := uuid.New()
		inv := cleanInvoice(id, "Crestline Produce")
		inv.Total = d("118.004")

		resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id}, resp.ReadyIDs)
	})

	t.Run("BeyondTolerance", func(t *testing.T) {
		id := uuid.New()
		inv := cleanInvoice(id, "Crestline Produce")
		inv.Total = d("200.00")

		resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
		require.NoError(t, err)
		assert.Empty(t, resp.ReadyIDs)
		require.NotEmpty(t, resp.Findings)
		assert.Equal(t, preflight.SeverityBlocking, resp.Findings[0].Severity)
	})

	t.Run("DepositDoesNotCount", func(t *testing.T) {
		id := uuid.New()
		inv := cleanInvoice(id, "Crestline Produce")
		inv.Deposit = d("50.00")

		resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id}, resp.ReadyIDs)
	})
}

func TestEngine_Check_LineItemInvariants(t *testing.T) {
	t.Run("BrokenDecomposition", func(t *testing.T) {
		id := uuid.New()
		inv := cleanInvoice(id, "Crestline Produce")
		inv.LineItems[0].UnitsPerCase = new(int64(12))
		inv.LineItems[0].Cases = new(int64(2))

		resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
		require.NoError(t, err)
		assert.Empty(t, resp.ReadyIDs)
	})

	t.Run("AmountMismatch", func(t *testing.T) {
		id := uuid.New()
		inv := cleanInvoice(id, "Crestline Produce")
		inv.LineItems[0].Amount = d("90.00")

		resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
		require.NoError(t, err)
		assert.Empty(t, resp.ReadyIDs)
	})
}

func TestEngine_Check_LowConfidenceWarns(t *testing.T) {
	id := uuid.New()
	inv := cleanInvoice(id, "Crestline Produce")
	inv.LineItems[0].Confidence = d("0.40")

	resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)

	// A warning never blocks on its own.
	assert.Equal(t, []uuid.UUID{id}, resp.ReadyIDs)
	require.Len(t, resp.Findings, 1)
	assert.Equal(t, preflight.SeverityWarning, resp.Findings[0].Severity)
}

func TestEngine_Check_CorrectedLineSkipsConfidence(t *testing.T) {
	id := uuid.New()
	inv := cleanInvoice(id, "Crestline Produce")
	inv.LineItems[0].Confidence = d("0.40")
	inv.LineItems[0].Corrected = true

	resp, err := newEngine(stubInvoices{id: inv}, nil).Check(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, resp.Findings)
}

func TestEngine_Check_InvoiceIssueBlocks(t *testing.T) {
	id := uuid.New()
	inv := cleanInvoice(id, "Crestline Produce")

	issues := stubIssues{
		{
			InvoiceID:  id,
			VendorName: "Crestline Produce",
			Scope:      issue.ScopeInvoice,
			Type:       issue.TypeBreakage,
			Status:     issue.StatusOpen,
		},
	}

	engine := newEngine(stubInvoices{id: inv}, issues)

	resp, err := engine.Check(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, resp.ReadyIDs)

	// The same issue, once resolved, no longer blocks anything.
	issues[0].Status = issue.StatusResolved

	resp, err = engine.Check(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, resp.ReadyIDs)
}

func TestEngine_Check_VendorWideBlock(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	invs := stubInvoices{
		a: cleanInvoice(a, "Harbor Dairy"),
		b: cleanInvoice(b, "Harbor Dairy"),
		c: cleanInvoice(c, "Crestline Produce"),
	}

	issues := stubIssues{
		{
			InvoiceID:  a,
			VendorName: "Harbor Dairy",
			Scope:      issue.ScopeVendor,
			Type:       issue.TypePriceMismatch,
			Status:     issue.StatusReported,
		},
	}

	resp, err := newEngine(invs, issues).Check(context.Background(), []uuid.UUID{a, b, c})
	require.NoError(t, err)

	// Both Harbor Dairy invoices are held, including the individually clean one.
	assert.Equal(t, []uuid.UUID{c}, resp.ReadyIDs)
	require.Len(t, resp.BlockingVendors, 1)
	assert.Equal(t, "Harbor Dairy", resp.BlockingVendors[0].VendorName)
	assert.Equal(t, []uuid.UUID{a, b}, resp.BlockingVendors[0].InvoiceIDs)
}
