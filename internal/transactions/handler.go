package transactions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockflow/stockflow/internal/platform/httpx"
)

// Handler exposes the transaction history view.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/history", h.handleHistory)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}

	page, err := h.service.Search(r.Context(), filter)
	if err != nil {
		if errors.Is(err, ErrInvalidFilter) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
			return
		}
		h.logger.Error("transaction history failed", slog.String("error", err.Error()))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "failed to load transaction history")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func parseHistoryFilter(r *http.Request) (HistoryFilter, error) {
	q := r.URL.Query()
	f := HistoryFilter{
		Type:        q.Get("type"),
		ItemSKU:     q.Get("itemSku"),
		Username:    q.Get("username"),
		FromBinCode: q.Get("fromBinCode"),
		ToBinCode:   q.Get("toBinCode"),
	}

	var err error
	if f.StartDate, err = queryDate(q.Get("startDate"), "startDate", false); err != nil {
		return HistoryFilter{}, err
	}
	if f.EndDate, err = queryDate(q.Get("endDate"), "endDate", true); err != nil {
		return HistoryFilter{}, err
	}

	if f.Page, err = queryInt(q.Get("page"), "page"); err != nil {
		return HistoryFilter{}, err
	}
	if f.PerPage, err = queryInt(q.Get("perPage"), "perPage"); err != nil {
		return HistoryFilter{}, err
	}
	return f, nil
}

// queryDate parses YYYY-MM-DD; endOfDay rolls the bound forward so an
// end date covers its full day inclusively.
func queryDate(raw, name string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New(name + " must be a YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}
