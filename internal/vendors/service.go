package vendor

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=vendor
type Repository interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*Vendor, error)
	ListVendors(ctx context.Context) ([]*Vendor, error)
	ListCorrections(ctx context.Context, vendorID uuid.UUID) ([]*Correction, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Vendor, error) {
	return s.repo.ListVendors(ctx)
}

// Corrections returns the append-only correction history, oldest first.
func (s *Service) Corrections(ctx context.Context, vendorID uuid.UUID) ([]*Correction, error) {
	return s.repo.ListCorrections(ctx, vendorID)
}
