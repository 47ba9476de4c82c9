package issue_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/caldervale/ledgerline/internal/issue"
)

func TestService_Open(t *testing.T) {
	type testCase struct {
		name      string
		params    issue.OpenParams
		setupMock func(m *issue.MockRepository)
		wantErr   error
		wantScope issue.Scope
	}

	tests := []testCase{
		{
			name: "DefaultsToInvoiceScope",
			params: issue.OpenParams{
				InvoiceID:  uuid.New(),
				VendorName: "Harbor Dairy",
				Type:       issue.TypeShortShip,
			},
			setupMock: func(m *issue.MockRepository) {
				m.EXPECT().
					CreateIssue(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, iss *issue.Issue) error {
						iss.ID = uuid.New()
						return nil
					})
			},
			wantScope: issue.ScopeInvoice,
		},
		{
			name: "VendorScope",
			params: issue.OpenParams{
				InvoiceID:  uuid.New(),
				VendorName: "Harbor Dairy",
				Scope:      issue.ScopeVendor,
				Type:       issue.TypePriceMismatch,
			},
			setupMock: func(m *issue.MockRepository) {
				m.EXPECT().
					CreateIssue(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantScope: issue.ScopeVendor,
		},
		{
			name: "UnknownType",
			params: issue.OpenParams{
				InvoiceID: uuid.New(),
				Type:      issue.Type("dented"),
			},
			wantErr: issue.ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := issue.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := issue.NewService(repo)
			iss, err := svc.Open(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, issue.StatusOpen, iss.Status)
			assert.Equal(t, tt.wantScope, iss.Scope)
			assert.Equal(t, issue.ResolutionPending, iss.ResolutionStatus)
		})
	}
}

func TestService_Report(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := issue.NewMockRepository(ctrl)
	repo.EXPECT().
		GetIssue(gomock.Any(), id).
		Return(&issue.Issue{ID: id, Status: issue.StatusOpen}, nil)
	repo.EXPECT().
		UpdateIssue(gomock.Any(), gomock.Any(), issue.StatusOpen).
		DoAndReturn(func(_ context.Context, iss *issue.Issue, _ issue.Status) error {
			assert.Equal(t, issue.StatusReported, iss.Status)
			return nil
		})

	svc := issue.NewService(repo)
	iss, err := svc.Report(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, issue.StatusReported, iss.Status)
}

func TestService_Resolve(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name    string
		stored  issue.Status
		wantErr error
	}

	tests := []testCase{
		{name: "FromOpen", stored: issue.StatusOpen},
		{name: "FromReported", stored: issue.StatusReported},
		{name: "FromResolved", stored: issue.StatusResolved, wantErr: issue.ErrInvalidTransition},
		{name: "FromClosed", stored: issue.StatusClosed, wantErr: issue.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := issue.NewMockRepository(ctrl)
			repo.EXPECT().
				GetIssue(gomock.Any(), id).
				Return(&issue.Issue{ID: id, Status: tt.stored}, nil)

			if tt.wantErr == nil {
				repo.EXPECT().
					UpdateIssue(gomock.Any(), gomock.Any(), tt.stored).
					Return(nil)
			}

			svc := issue.NewService(repo)
			iss, err := svc.Resolve(context.Background(), id, issue.ResolutionCreditMemo)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, issue.StatusResolved, iss.Status)
			assert.Equal(t, issue.ResolutionCreditMemo, iss.ResolutionType)
			assert.Equal(t, issue.ResolutionCompleted, iss.ResolutionStatus)
			assert.NotNil(t, iss.ResolvedAt)
		})
	}
}

func TestService_Close(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name       string
		stored     issue.Status
		resolution issue.ResolutionStatus
		wantErr    error
	}

	tests := []testCase{
		{
			name:       "ResolvedAndCompleted",
			stored:     issue.StatusResolved,
			resolution: issue.ResolutionCompleted,
		},
		{
			name:       "ResolvedButPending",
			stored:     issue.StatusResolved,
			resolution: issue.ResolutionPending,
			wantErr:    issue.ErrInvalidTransition,
		},
		{
			name:       "StillOpen",
			stored:     issue.StatusOpen,
			resolution: issue.ResolutionPending,
			wantErr:    issue.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := issue.NewMockRepository(ctrl)
			repo.EXPECT().
				GetIssue(gomock.Any(), id).
				Return(&issue.Issue{ID: id, Status: tt.stored, ResolutionStatus: tt.resolution}, nil)

			if tt.wantErr == nil {
				repo.EXPECT().
					UpdateIssue(gomock.Any(), gomock.Any(), issue.StatusResolved).
					Return(nil)
			}

			svc := issue.NewService(repo)
			iss, err := svc.Close(context.Background(), id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, issue.StatusClosed, iss.Status)
		})
	}
}

func TestService_AddCommunication(t *testing.T) {
	id := uuid.New()

	t.Run("OpenIssue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := issue.NewMockRepository(ctrl)
		repo.EXPECT().
			GetIssue(gomock.Any(), id).
			Return(&issue.Issue{ID: id, Status: issue.StatusReported}, nil)
		repo.EXPECT().
			AppendCommunication(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, comm *issue.Communication) error {
				comm.ID = uuid.New()
				comm.Seq = 3
				return nil
			})

		svc := issue.NewService(repo)
		comm, err := svc.AddCommunication(context.Background(), id, issue.CommEmail, "credit requested", "ap@harbordairy.example")

		require.NoError(t, err)
		assert.Equal(t, 3, comm.Seq)
		assert.Equal(t, issue.CommEmail, comm.Kind)
	})

	t.Run("ClosedIssueBehavesAsMissing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := issue.NewMockRepository(ctrl)
		repo.EXPECT().
			GetIssue(gomock.Any(), id).
			Return(&issue.Issue{ID: id, Status: issue.StatusClosed}, nil)

		svc := issue.NewService(repo)
		_, err := svc.AddCommunication(context.Background(), id, issue.CommNote, "late note", "")

		assert.ErrorIs(t, err, issue.ErrNotFound)
	})
}
