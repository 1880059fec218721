package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/stockflow/stockflow/internal/ledger"
	"github.com/stockflow/stockflow/internal/shared"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// RepositoryPort describes the persistence dependency of the service.
type RepositoryPort interface {
	SearchSummaries(ctx context.Context, f SummaryFilter) ([]Summary, error)
	CountSummaries(ctx context.Context, f SummaryFilter) (int, error)
}

// Service serves the read-only inventory status view with a versioned
// cache in front of the database.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Search returns a filtered, paginated snapshot of inventory positions.
// Concurrent requests for the same key share one database round trip.
func (s *Service) Search(ctx context.Context, f SummaryFilter) (SummaryPage, error) {
	normalizeFilter(&f)
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return SummaryPage{}, fmt.Errorf("%w: minPrice exceeds maxPrice", ErrInvalidFilter)
	}

	key, err := s.cache.BuildKey(ctx, summaryKey(f))
	if err != nil {
		return SummaryPage{}, err
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var page SummaryPage
		err := s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (interface{}, error) {
			return s.load(ctx, f)
		})
		return page, err
	})
	if err != nil {
		return SummaryPage{}, err
	}
	return result.(SummaryPage), nil
}

func (s *Service) load(ctx context.Context, f SummaryFilter) (SummaryPage, error) {
	total, err := s.repo.CountSummaries(ctx, f)
	if err != nil {
		return SummaryPage{}, err
	}
	items, err := s.repo.SearchSummaries(ctx, f)
	if err != nil {
		return SummaryPage{}, err
	}
	return SummaryPage{
		Items:      items,
		Pagination: shared.NewPagination(f.Page, f.PerPage, total),
	}, nil
}

func normalizeFilter(f *SummaryFilter) {
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

// Invalidator bumps the summary cache whenever a ledger transaction commits.
type Invalidator struct {
	cache  *Cache
	logger *slog.Logger
}

func NewInvalidator(cache *Cache, logger *slog.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

func (i *Invalidator) HandleLedgerCommitted(ctx context.Context, evt ledger.CommittedEvent) {
	if err := i.cache.Bump(ctx); err != nil {
		i.logger.Error("inventory cache bump failed",
			slog.String("type", string(evt.Record.Type)),
			slog.String("error", err.Error()))
	}
}
