package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stockflow/stockflow/internal/masterdata"
	"github.com/stockflow/stockflow/internal/observability"
	"github.com/stockflow/stockflow/internal/platform/httpx"
	"github.com/stockflow/stockflow/internal/shared"
)

// IdempotencyKeyHeader carries an optional client-chosen request key.
const IdempotencyKeyHeader = "Idempotency-Key"

// Handler wires HTTP endpoints for ledger operations.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	master    *masterdata.Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service, master *masterdata.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		master:    master,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/move", h.handleMove)
	r.Post("/adjust", h.handleAdjust)
	r.Get("/position", h.handlePosition)
}

type movementRequest struct {
	ItemID      int64  `json:"itemId" validate:"required,gt=0"`
	FromBinCode string `json:"fromBinCode" validate:"required"`
	ToBinCode   string `json:"toBinCode" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Notes       string `json:"notes"`
}

type adjustmentRequest struct {
	InventoryID        int64  `json:"inventoryId" validate:"required,gt=0"`
	AdjustmentQuantity int64  `json:"adjustmentQuantity" validate:"required"`
	Notes              string `json:"notes" validate:"required"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := h.mutationPreamble(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	fromLoc, err := h.master.ResolveBinCode(r.Context(), req.FromBinCode)
	if err != nil {
		h.respondError(w, string(TransactionTypeMovement), err)
		return
	}
	toLoc, err := h.master.ResolveBinCode(r.Context(), req.ToBinCode)
	if err != nil {
		h.respondError(w, string(TransactionTypeMovement), err)
		return
	}

	record, err := h.service.Move(r.Context(), MoveInput{
		ItemID:         req.ItemID,
		FromLocationID: fromLoc.ID,
		ToLocationID:   toLoc.ID,
		Quantity:       req.Quantity,
		Notes:          req.Notes,
		ActorID:        actorID,
		IdempotencyKey: key,
	})
	if err != nil {
		h.logger.Error("movement failed",
			slog.Int64("item_id", req.ItemID),
			slog.String("from", req.FromBinCode),
			slog.String("to", req.ToBinCode),
			slog.Any("error", err))
		h.respondError(w, string(TransactionTypeMovement), err)
		return
	}
	h.metrics.ObserveLedgerOperation(string(record.Type))
	h.logger.Info("movement posted",
		slog.Int64("transaction_id", record.ID),
		slog.Int64("item_id", record.ItemID),
		slog.Int64("quantity", record.Quantity))
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := h.mutationPreamble(w, r)
	if !ok {
		return
	}
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	record, err := h.service.Adjust(r.Context(), AdjustInput{
		PositionID:     req.InventoryID,
		Delta:          req.AdjustmentQuantity,
		Notes:          req.Notes,
		ActorID:        actorID,
		IdempotencyKey: key,
	})
	if err != nil {
		h.logger.Error("adjustment failed",
			slog.Int64("position_id", req.InventoryID),
			slog.Int64("delta", req.AdjustmentQuantity),
			slog.Any("error", err))
		h.respondError(w, string(TransactionTypeAdjustment), err)
		return
	}
	h.metrics.ObserveLedgerOperation(string(record.Type))
	h.logger.Info("adjustment posted",
		slog.Int64("transaction_id", record.ID),
		slog.Int64("item_id", record.ItemID),
		slog.Int64("delta", record.Quantity))
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, err := strconv.ParseInt(q.Get("itemId"), 10, 64)
	if err != nil || itemID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "itemId is required")
		return
	}
	binCode := q.Get("binCode")
	if binCode == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "binCode is required")
		return
	}
	loc, err := h.master.ResolveBinCode(r.Context(), binCode)
	if err != nil {
		h.respondError(w, "POSITION", err)
		return
	}
	pos, err := h.service.GetPosition(r.Context(), itemID, loc.ID)
	if err != nil {
		h.respondError(w, "POSITION", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

// mutationPreamble extracts the acting user and the optional idempotency key,
// rejecting anonymous or malformed mutation requests.
func (h *Handler) mutationPreamble(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	actorID := shared.ActorFromContext(r.Context())
	if actorID == 0 {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return 0, "", false
	}
	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" {
		if _, err := uuid.Parse(key); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "idempotency key must be a UUID")
			return 0, "", false
		}
	}
	return actorID, key, true
}

func (h *Handler) respondError(w http.ResponseWriter, opType string, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		h.metrics.ObserveLedgerFailure(opType, "insufficient_stock")
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", insufficient.Error())
	case errors.Is(err, ErrInsufficientStock):
		h.metrics.ObserveLedgerFailure(opType, "insufficient_stock")
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidRoute):
		h.metrics.ObserveLedgerFailure(opType, "validation")
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPositionNotFound),
		errors.Is(err, masterdata.ErrItemNotFound),
		errors.Is(err, masterdata.ErrLocationNotFound):
		h.metrics.ObserveLedgerFailure(opType, "not_found")
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		h.metrics.ObserveLedgerFailure(opType, "conflict")
		httpx.Problem(w, http.StatusConflict, "Conflict", "operation raced with a concurrent update, retry")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		h.metrics.ObserveLedgerFailure(opType, "duplicate")
		httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		h.metrics.ObserveLedgerFailure(opType, "internal")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
