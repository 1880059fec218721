package transactions

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(repo RepositoryPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/api/transactions", handler.MountRoutes)
	return r
}

func TestHandleHistoryAppliesFilters(t *testing.T) {
	repo := &mockRepo{}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet,
		"/api/transactions/history?type=MOVEMENT&itemSku=ELEC-0001&startDate=2025-03-01&endDate=2025-03-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := repo.searchFilter
	if got.Type != "MOVEMENT" || got.ItemSKU != "ELEC-0001" {
		t.Fatalf("unexpected filter %+v", got)
	}
	if got.StartDate == nil || !got.StartDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %v", got.StartDate)
	}
	// End bound must cover the whole closing day.
	if got.EndDate == nil || got.EndDate.Before(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("unexpected end date %v", got.EndDate)
	}
}

func TestHandleHistoryRejectsBadDate(t *testing.T) {
	router := newTestRouter(&mockRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/history?startDate=03-01-2025", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleHistoryRejectsUnknownType(t *testing.T) {
	router := newTestRouter(&mockRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/history?type=WARP", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
