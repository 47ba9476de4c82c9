package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/caldervale/ledgerline/internal/invoice"
)

func TestService_UpdateStatus(t *testing.T) {
	id := uuid.New()

	type args struct {
		expected invoice.Status
		next     invoice.Status
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *invoice.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "LegalEdge",
			args: args{expected: invoice.StatusReadyToPush, next: invoice.StatusPushed},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					UpdateStatus(gomock.Any(), id, invoice.StatusReadyToPush, invoice.StatusPushed).
					Return(nil)
			},
		},
		{
			name: "RetryAfterFailure",
			args: args{expected: invoice.StatusFailed, next: invoice.StatusReadyToPush},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					UpdateStatus(gomock.Any(), id, invoice.StatusFailed, invoice.StatusReadyToPush).
					Return(nil)
			},
		},
		{
			name:    "IllegalEdge",
			args:    args{expected: invoice.StatusParsed, next: invoice.StatusPosted},
			wantErr: invoice.ErrInvalidTransition,
		},
		{
			name:    "PostedIsTerminal",
			args:    args{expected: invoice.StatusPosted, next: invoice.StatusReadyToPush},
			wantErr: invoice.ErrInvalidTransition,
		},
		{
			name:    "UnknownStatus",
			args:    args{expected: invoice.Status("shipped"), next: invoice.StatusPosted},
			wantErr: invoice.ErrInvalidTransition,
		},
		{
			name: "ReviewExitRequiresApproval",
			args: args{expected: invoice.StatusNeedsReview, next: invoice.StatusReadyToPush},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					GetInvoice(gomock.Any(), id).
					Return(&invoice.Invoice{ID: id, Status: invoice.StatusNeedsReview}, nil)
			},
			wantErr: invoice.ErrNotApproved,
		},
		{
			name: "ReviewExitWithApproval",
			args: args{expected: invoice.StatusNeedsReview, next: invoice.StatusReadyToPush},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					GetInvoice(gomock.Any(), id).
					Return(&invoice.Invoice{ID: id, Status: invoice.StatusNeedsReview, Approved: true}, nil)
				m.EXPECT().
					UpdateStatus(gomock.Any(), id, invoice.StatusNeedsReview, invoice.StatusReadyToPush).
					Return(nil)
			},
		},
		{
			name: "ConcurrentMove",
			args: args{expected: invoice.StatusReadyToPush, next: invoice.StatusPushed},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					UpdateStatus(gomock.Any(), id, invoice.StatusReadyToPush, invoice.StatusPushed).
					Return(invoice.ErrConflict)
			},
			wantErr: invoice.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := invoice.NewService(repo)
			err := svc.UpdateStatus(context.Background(), id, tt.args.expected, tt.args.next)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Approve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().SetApproved(gomock.Any(), id).Return(nil)
	repo.EXPECT().
		GetInvoice(gomock.Any(), id).
		Return(&invoice.Invoice{ID: id, Status: invoice.StatusNeedsReview, Approved: true}, nil)

	svc := invoice.NewService(repo)
	inv, err := svc.Approve(context.Background(), id)

	require.NoError(t, err)
	assert.True(t, inv.Approved)
	// Approval does not move the pipeline on its own.
	assert.Equal(t, invoice.StatusNeedsReview, inv.Status)
}

func TestService_ApplyCorrection(t *testing.T) {
	invoiceID := uuid.New()
	lineID := uuid.New()

	stored := func() *invoice.Invoice {
		return &invoice.Invoice{
			ID:         invoiceID,
			VendorName: "Crestline Produce",
			Subtotal:   decimal.RequireFromString("100.00"),
			LineItems: []invoice.LineItem{
				{
					ID:       lineID,
					Quantity: decimal.NewFromInt(12),
					UnitCost: decimal.RequireFromString("1.50"),
				},
			},
		}
	}

	type testCase struct {
		name       string
		correction invoice.Correction
		setupMock  func(m *invoice.MockRepository)
		wantErr    error
	}

	tests := []testCase{
		{
			name: "InvoiceField",
			correction: invoice.Correction{
				InvoiceID: invoiceID,
				Field:     "subtotal",
				NewValue:  "95.00",
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
				m.EXPECT().
					ApplyCorrection(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c invoice.Correction) error {
						assert.Equal(t, "Crestline Produce", c.VendorName)
						assert.Equal(t, "100", c.OldValue)
						return nil
					})
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
			},
		},
		{
			name: "LineItemField",
			correction: invoice.Correction{
				InvoiceID:  invoiceID,
				LineItemID: &lineID,
				Field:      "quantity",
				NewValue:   "10",
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
				m.EXPECT().
					ApplyCorrection(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c invoice.Correction) error {
						assert.Equal(t, "12", c.OldValue)
						return nil
					})
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
			},
		},
		{
			name: "UnknownField",
			correction: invoice.Correction{
				InvoiceID: invoiceID,
				Field:     "color",
				NewValue:  "blue",
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
			},
			wantErr: invoice.ErrUnknownField,
		},
		{
			name: "UnknownLineItem",
			correction: invoice.Correction{
				InvoiceID:  invoiceID,
				LineItemID: new(uuid.New()),
				Field:      "quantity",
				NewValue:   "10",
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
			},
			wantErr: invoice.ErrNotFound,
		},
		{
			name: "NonNumericMoney",
			correction: invoice.Correction{
				InvoiceID: invoiceID,
				Field:     "subtotal",
				NewValue:  "ninety",
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().GetInvoice(gomock.Any(), invoiceID).Return(stored(), nil)
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := invoice.NewService(repo)
			got, err := svc.ApplyCorrection(context.Background(), tt.correction)

			if tt.name == "NonNumericMoney" {
				assert.Error(t, err)
				return
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestService_Ingest(t *testing.T) {
	existing := &invoice.Invoice{
		ID:         uuid.New(),
		Number:     "INV-100",
		VendorName: "Crestline Produce",
		Status:     invoice.StatusParsed,
	}

	params := []invoice.CreateParams{
		{
			Number:      "INV-100",
			VendorName:  "Crestline Produce",
			InvoiceDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:      invoice.StatusParsed,
		},
		{
			Number:      "INV-200",
			VendorName:  "Harbor Dairy",
			InvoiceDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Status:      invoice.StatusParsed,
			Total:       decimal.RequireFromString("42.00"),
		},
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tx := invoice.NewMockIngestTx(ctrl)
	tx.EXPECT().
		FindExisting(gomock.Any(), gomock.Any()).
		Return([]*invoice.Invoice{existing}, nil)
	tx.EXPECT().
		CreateInvoices(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, invs []*invoice.Invoice) error {
			require.Len(t, invs, 1)
			assert.Equal(t, "INV-200", invs[0].Number)
			invs[0].ID = uuid.New()
			return nil
		})
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().BeginIngest(gomock.Any()).Return(tx, nil)

	svc := invoice.NewService(repo)
	result, err := svc.Ingest(context.Background(), params)

	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.Len(t, result.Duplicates, 1)
	assert.Equal(t, existing.ID, result.Duplicates[0].ID)
}

func TestService_Ingest_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)

	svc := invoice.NewService(repo)
	result, err := svc.Ingest(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Duplicates)
}
