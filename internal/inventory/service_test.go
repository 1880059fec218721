package inventory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stockflow/stockflow/internal/ledger"
)

type mockRepo struct {
	rows         []Summary
	total        int
	searchCalls  int
	countCalls   int
	searchFilter SummaryFilter
}

func (m *mockRepo) SearchSummaries(ctx context.Context, f SummaryFilter) ([]Summary, error) {
	m.searchCalls++
	m.searchFilter = f
	return m.rows, nil
}

func (m *mockRepo) CountSummaries(ctx context.Context, f SummaryFilter) (int, error) {
	m.countCalls++
	return m.total, nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestSearchCaches(t *testing.T) {
	repo := &mockRepo{
		rows: []Summary{
			{ItemID: 1, ItemName: "Keyboard", SKU: "ELEC-0001", Price: 4500, CategoryName: "Electronics",
				InventoryID: 10, Quantity: 12, CenterName: "Seoul", Zone: "A", BinCode: "A-01"},
		},
		total: 1,
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	filter := SummaryFilter{SKU: "ELEC-0001"}
	page, err := svc.Search(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Quantity != 12 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Pagination.Total != 1 || page.Pagination.Page != 1 {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
	if repo.searchCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.searchCalls)
	}

	// Second call should hit cache.
	if _, err := svc.Search(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.searchCalls)
	}

	// Bumping the cache should trigger reload.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.rows[0].Quantity = 7
	page, err = svc.Search(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Items[0].Quantity != 7 {
		t.Fatalf("expected refreshed quantity 7 got %d", page.Items[0].Quantity)
	}
	if repo.searchCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.searchCalls)
	}
}

func TestSearchNormalizesPaging(t *testing.T) {
	repo := &mockRepo{total: 0}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	if _, err := svc.Search(context.Background(), SummaryFilter{Page: -3, PerPage: 9999}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchFilter.Page != 1 {
		t.Fatalf("expected page 1, got %d", repo.searchFilter.Page)
	}
	if repo.searchFilter.PerPage != maxPerPage {
		t.Fatalf("expected per page capped at %d, got %d", maxPerPage, repo.searchFilter.PerPage)
	}
}

func TestSearchRejectsInvertedPriceRange(t *testing.T) {
	svc, cleanup := newTestService(t, &mockRepo{})
	defer cleanup()

	lo, hi := int64(100), int64(50)
	_, err := svc.Search(context.Background(), SummaryFilter{MinPrice: &lo, MaxPrice: &hi})
	if err == nil {
		t.Fatal("expected error for inverted price range")
	}
}

func TestSearchDistinctFiltersGetDistinctKeys(t *testing.T) {
	repo := &mockRepo{total: 0}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Search(ctx, SummaryFilter{Zone: "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Search(ctx, SummaryFilter{Zone: "B"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchCalls != 2 {
		t.Fatalf("expected distinct filters to miss cache, calls %d", repo.searchCalls)
	}
}

func TestSearchColonInFilterValuesKeepsKeysDistinct(t *testing.T) {
	repo := &mockRepo{
		rows: []Summary{
			{ItemID: 1, ItemName: "a:b match", Quantity: 99},
		},
		total: 1,
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	if keyA, keyB := summaryKey(SummaryFilter{Name: "a:b", SKU: "c"}), summaryKey(SummaryFilter{Name: "a", SKU: "b:c"}); keyA == keyB {
		t.Fatalf("filters must not share a cache key: %s", keyA)
	}

	ctx := context.Background()
	if _, err := svc.Search(ctx, SummaryFilter{Name: "a:b", SKU: "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.rows = nil
	repo.total = 0

	page, err := svc.Search(ctx, SummaryFilter{Name: "a", SKU: "b:c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchCalls != 2 {
		t.Fatalf("second filter must miss the cache, repo calls %d", repo.searchCalls)
	}
	if len(page.Items) != 0 {
		t.Fatalf("served another filter's cached rows: %+v", page.Items)
	}
}

func TestInvalidatorBumpsOnCommit(t *testing.T) {
	repo := &mockRepo{total: 0}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Search(ctx, SummaryFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchCalls != 1 {
		t.Fatalf("expected 1 call, got %d", repo.searchCalls)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inv := NewInvalidator(svc.cache, logger)
	inv.HandleLedgerCommitted(ctx, ledger.CommittedEvent{
		Record: ledger.TransactionRecord{Type: ledger.TransactionTypeMovement},
	})

	if _, err := svc.Search(ctx, SummaryFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchCalls != 2 {
		t.Fatalf("expected bump to invalidate cache, calls %d", repo.searchCalls)
	}
}
