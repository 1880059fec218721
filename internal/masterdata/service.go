package masterdata

import "context"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	GetItem(ctx context.Context, id int64) (Item, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	GetLocationByBinCode(ctx context.Context, binCode string) (Location, error)
}

// Service exposes read-only master-data lookups to the ledger and the
// projection layers.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetItem returns the item or ErrItemNotFound.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// GetLocation returns the location or ErrLocationNotFound.
func (s *Service) GetLocation(ctx context.Context, id int64) (Location, error) {
	return s.repo.GetLocation(ctx, id)
}

// ResolveBinCode returns the location for a bin code or ErrLocationNotFound.
func (s *Service) ResolveBinCode(ctx context.Context, binCode string) (Location, error) {
	return s.repo.GetLocationByBinCode(ctx, binCode)
}
