package inventory

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestHandlerRouter(t *testing.T, repo RepositoryPort) (http.Handler, func()) {
	t.Helper()
	svc, cleanup := newTestService(t, repo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc)
	r := chi.NewRouter()
	r.Route("/api/inventory", handler.MountRoutes)
	return r, cleanup
}

func TestHandleStatusAppliesFilters(t *testing.T) {
	repo := &mockRepo{total: 0}
	router, cleanup := newTestHandlerRouter(t, repo)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet,
		"/api/inventory/status?sku=ELEC-0001&centerName=Seoul&zoneCode=A&binCode=A-01&minQuantity=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := repo.searchFilter
	if got.SKU != "ELEC-0001" || got.CenterName != "Seoul" || got.BinCode != "A-01" {
		t.Fatalf("unexpected filter %+v", got)
	}
	if got.Zone != "A" {
		t.Fatalf("zoneCode parameter not applied, got zone %q", got.Zone)
	}
	if got.MinQuantity == nil || *got.MinQuantity != 5 {
		t.Fatalf("unexpected min quantity %v", got.MinQuantity)
	}
}

func TestHandleStatusRejectsBadNumbers(t *testing.T) {
	router, cleanup := newTestHandlerRouter(t, &mockRepo{})
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/status?minPrice=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
