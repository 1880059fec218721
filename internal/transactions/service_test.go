package transactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockflow/stockflow/internal/ledger"
)

type mockRepo struct {
	entries      []HistoryEntry
	total        int
	searchCalls  int
	searchFilter HistoryFilter
}

func (m *mockRepo) SearchHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	m.searchCalls++
	m.searchFilter = f
	return m.entries, nil
}

func (m *mockRepo) CountHistory(ctx context.Context, f HistoryFilter) (int, error) {
	return m.total, nil
}

func TestSearchReturnsPage(t *testing.T) {
	bin := "A-01"
	center := "Seoul"
	user := "wkim"
	uid := int64(7)
	repo := &mockRepo{
		entries: []HistoryEntry{
			{TransactionID: 3, ItemID: 1, ItemName: "Keyboard", ItemSKU: "ELEC-0001",
				FromBinCode: &bin, FromCenterName: &center,
				Type: string(ledger.TransactionTypeMovement), Quantity: 5,
				OccurredAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
				UserID:     &uid, Username: &user, Notes: "restock"},
		},
		total: 41,
	}
	svc := NewService(repo)

	page, err := svc.Search(context.Background(), HistoryFilter{Page: 2, PerPage: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].TransactionID != 3 {
		t.Fatalf("unexpected entries %+v", page.Entries)
	}
	if page.Pagination.Total != 41 || page.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
}

func TestSearchValidatesType(t *testing.T) {
	svc := NewService(&mockRepo{})

	_, err := svc.Search(context.Background(), HistoryFilter{Type: "TELEPORT"})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}

	for _, typ := range []string{"INBOUND", "OUTBOUND", "MOVEMENT", "ADJUSTMENT"} {
		if _, err := svc.Search(context.Background(), HistoryFilter{Type: typ}); err != nil {
			t.Fatalf("type %s rejected: %v", typ, err)
		}
	}
}

func TestSearchValidatesDateRange(t *testing.T) {
	svc := NewService(&mockRepo{})

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Search(context.Background(), HistoryFilter{StartDate: &start, EndDate: &end})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestSearchNormalizesPaging(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	if _, err := svc.Search(context.Background(), HistoryFilter{Page: 0, PerPage: 500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.searchFilter.Page != 1 {
		t.Fatalf("expected page 1, got %d", repo.searchFilter.Page)
	}
	if repo.searchFilter.PerPage != maxPerPage {
		t.Fatalf("expected per page capped at %d, got %d", maxPerPage, repo.searchFilter.PerPage)
	}
}
