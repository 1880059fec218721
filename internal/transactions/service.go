package transactions

import (
	"context"
	"fmt"

	"github.com/stockflow/stockflow/internal/ledger"
	"github.com/stockflow/stockflow/internal/shared"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// RepositoryPort describes the persistence dependency of the service.
type RepositoryPort interface {
	SearchHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error)
	CountHistory(ctx context.Context, f HistoryFilter) (int, error)
}

// Service serves the immutable transaction history.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Search returns a filtered page of the transaction log. The log is
// append-only, so results for a fixed filter and bound only ever grow
// at the head.
func (s *Service) Search(ctx context.Context, f HistoryFilter) (HistoryPage, error) {
	normalizeFilter(&f)
	if f.Type != "" && !validType(f.Type) {
		return HistoryPage{}, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidFilter, f.Type)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return HistoryPage{}, fmt.Errorf("%w: startDate after endDate", ErrInvalidFilter)
	}

	total, err := s.repo.CountHistory(ctx, f)
	if err != nil {
		return HistoryPage{}, err
	}
	entries, err := s.repo.SearchHistory(ctx, f)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{
		Entries:    entries,
		Pagination: shared.NewPagination(f.Page, f.PerPage, total),
	}, nil
}

func validType(t string) bool {
	switch ledger.TransactionType(t) {
	case ledger.TransactionTypeInbound, ledger.TransactionTypeOutbound,
		ledger.TransactionTypeMovement, ledger.TransactionTypeAdjustment:
		return true
	}
	return false
}

func normalizeFilter(f *HistoryFilter) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
}
