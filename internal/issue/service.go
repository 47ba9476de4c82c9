package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=issue
type Repository interface {
	CreateIssue(ctx context.Context, iss *Issue) error
	GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error)
	ListIssues(ctx context.Context, filter ListFilter) ([]*Issue, error)

	// UpdateIssue persists status and resolution fields, guarded by the
	// expected prior status. ErrNotFound when the row is gone or was moved
	// off the expected status concurrently.
	UpdateIssue(ctx context.Context, iss *Issue, expected Status) error

	// AppendCommunication assigns the next sequence number and persists the
	// entry atomically.
	AppendCommunication(ctx context.Context, comm *Communication) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	InvoiceID  *uuid.UUID
	VendorName *string
	Scope      *Scope
	Unresolved bool
}

type OpenParams struct {
	InvoiceID   uuid.UUID
	VendorName  string
	Scope       Scope
	Type        Type
	Description string
	LineItemIDs []uuid.UUID
}

// Open records a new discrepancy in the open state. Opening an issue never
// mutates the invoice: the preflight engine recomputes eligibility lazily.
func (s *Service) Open(ctx context.Context, params OpenParams) (*Issue, error) {
	if !params.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, params.Type)
	}

	scope := params.Scope
	if scope == "" {
		scope = ScopeInvoice
	}

	iss := &Issue{
		InvoiceID:        params.InvoiceID,
		VendorName:       params.VendorName,
		Scope:            scope,
		Type:             params.Type,
		Status:           StatusOpen,
		Description:      params.Description,
		LineItemIDs:      params.LineItemIDs,
		ResolutionStatus: ResolutionPending,
	}

	if err := s.repo.CreateIssue(ctx, iss); err != nil {
		return nil, err
	}

	return iss, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Issue, error) {
	return s.repo.GetIssue(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Issue, error) {
	return s.repo.ListIssues(ctx, filter)
}

// Report marks the issue as communicated to the vendor.
func (s *Service) Report(ctx context.Context, id uuid.UUID) (*Issue, error) {
	return s.transition(ctx, id, StatusReported, func(*Issue) {})
}

// AddCommunication appends to the issue's audit log. A closed issue no longer
// accepts entries and behaves as if it does not exist.
func (s *Service) AddCommunication(ctx context.Context, id uuid.UUID, kind CommKind, content, recipient string) (*Communication, error) {
	iss, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if iss.Status == StatusClosed {
		return nil, fmt.Errorf("%w: issue %s is closed", ErrNotFound, id)
	}

	comm := &Communication{
		IssueID:   id,
		Kind:      kind,
		Content:   content,
		Recipient: recipient,
	}

	if err := s.repo.AppendCommunication(ctx, comm); err != nil {
		return nil, err
	}

	return comm, nil
}

// Resolve completes the resolution and moves the issue to resolved. The
// parent invoice stops being blocked by this issue on the next preflight run.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, resolution ResolutionType) (*Issue, error) {
	return s.transition(ctx, id, StatusResolved, func(iss *Issue) {
		now := time.Now().UTC()
		iss.ResolutionType = resolution
		iss.ResolutionStatus = ResolutionCompleted
		iss.ResolvedAt = &now
	})
}

// Close is only legal from resolved with a completed resolution.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Issue, error) {
	iss, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if iss.Status != StatusResolved || iss.ResolutionStatus != ResolutionCompleted {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, iss.Status, StatusClosed)
	}

	expected := iss.Status
	iss.Status = StatusClosed

	if err := s.repo.UpdateIssue(ctx, iss, expected); err != nil {
		return nil, err
	}

	return iss, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next Status, mutate func(*Issue)) (*Issue, error) {
	iss, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if !iss.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, iss.Status, next)
	}

	expected := iss.Status
	iss.Status = next
	mutate(iss)

	if err := s.repo.UpdateIssue(ctx, iss, expected); err != nil {
		return nil, err
	}

	return iss, nil
}
