package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockflow/stockflow/internal/masterdata"
	"github.com/stockflow/stockflow/internal/observability"
	"github.com/stockflow/stockflow/internal/shared"
)

type fakeMasterRepo struct {
	master *fakeMaster
}

func (f *fakeMasterRepo) GetItem(ctx context.Context, id int64) (masterdata.Item, error) {
	return f.master.GetItem(ctx, id)
}

func (f *fakeMasterRepo) GetLocation(ctx context.Context, id int64) (masterdata.Location, error) {
	return f.master.GetLocation(ctx, id)
}

func (f *fakeMasterRepo) GetLocationByBinCode(ctx context.Context, binCode string) (masterdata.Location, error) {
	for _, loc := range f.master.locations {
		if loc.BinCode == binCode {
			return loc, nil
		}
	}
	return masterdata.Location{}, masterdata.ErrLocationNotFound
}

func newTestRouter(repo *memoryRepo) http.Handler {
	return newTestRouterWithIdempotency(repo, nil)
}

func newTestRouterWithIdempotency(repo *memoryRepo, idem IdempotencyPort) http.Handler {
	master := masterdata.NewService(&fakeMasterRepo{master: newFakeMaster()})
	svc := NewService(repo, newFakeMaster(), nil, idem, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, master, observability.NewMetrics())

	r := chi.NewRouter()
	r.Use(shared.ActorMiddleware)
	r.Route("/api/inventory", handler.MountRoutes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandleMoveCreatesRecord(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 10)
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/api/inventory/move", map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "B2",
		"quantity":    5,
		"notes":       "rebalance",
	}, map[string]string{shared.ActorHeader: "7"})

	require.Equal(t, http.StatusCreated, rr.Code)

	var record TransactionRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	require.Equal(t, TransactionTypeMovement, record.Type)
	require.EqualValues(t, 5, record.Quantity)
	require.EqualValues(t, 7, record.UserID)
}

func TestHandleMoveRequiresActor(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rr := postJSON(t, router, "/api/inventory/move", map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "B2",
		"quantity":    5,
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleMoveUnknownBin(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 10)
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/api/inventory/move", map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "ZZ-99",
		"quantity":    5,
	}, map[string]string{shared.ActorHeader: "7"})

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleMoveInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 2)
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/api/inventory/move", map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "B2",
		"quantity":    5,
	}, map[string]string{shared.ActorHeader: "7"})

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "have 2, need 5")
}

func TestHandleMoveRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/move", bytes.NewReader([]byte("{not json")))
	req.Header.Set(shared.ActorHeader, "7")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleAdjustValidatesRequest(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 5)
	router := newTestRouter(repo)

	// missing notes fails struct validation before the service is reached
	rr := postJSON(t, router, "/api/inventory/adjust", map[string]any{
		"inventoryId":        1,
		"adjustmentQuantity": -2,
	}, map[string]string{shared.ActorHeader: "7"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, router, "/api/inventory/adjust", map[string]any{
		"inventoryId":        1,
		"adjustmentQuantity": -2,
		"notes":              "damage",
	}, map[string]string{shared.ActorHeader: "7"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var record TransactionRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	require.Equal(t, TransactionTypeAdjustment, record.Type)
	require.EqualValues(t, -2, record.Quantity)
	require.Nil(t, record.FromLocationID)
	require.Nil(t, record.ToLocationID)
}

func TestHandleMoveRejectsBadIdempotencyKey(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rr := postJSON(t, router, "/api/inventory/move", map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "B2",
		"quantity":    5,
	}, map[string]string{shared.ActorHeader: "7", IdempotencyKeyHeader: "not-a-uuid"})

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleMoveDuplicateIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 10)
	router := newTestRouterWithIdempotency(repo, newFakeIdempotency())

	body := map[string]any{
		"itemId":      1,
		"fromBinCode": "A1",
		"toBinCode":   "B2",
		"quantity":    2,
		"notes":       "rebalance",
	}
	headers := map[string]string{
		shared.ActorHeader:   "7",
		IdempotencyKeyHeader: "3f1c2b6a-9d4e-4f7b-8a2c-5e6d7f8a9b0c",
	}

	rr := postJSON(t, router, "/api/inventory/move", body, headers)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, router, "/api/inventory/move", body, headers)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "Duplicate Request")
	require.Len(t, repo.records, 1)
}

func TestHandlePosition(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 12)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/position?itemId=1&binCode=A1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var pos Position
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pos))
	require.EqualValues(t, 12, pos.Quantity)

	// never-recorded position reports zero
	req = httptest.NewRequest(http.MethodGet, "/api/inventory/position?itemId=1&binCode=B2", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pos))
	require.EqualValues(t, 0, pos.Quantity)
}
