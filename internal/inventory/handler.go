package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockflow/stockflow/internal/platform/httpx"
)

// Handler exposes the inventory status view.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSummaryFilter(r)
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
		h.logger.Error("inventory status failed", slog.String("error", err.Error()))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "failed to load inventory status")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func parseSummaryFilter(r *http.Request) (SummaryFilter, error) {
	q := r.URL.Query()
	f := SummaryFilter{
		Name:       q.Get("name"),
		SKU:        q.Get("sku"),
		CenterName: q.Get("centerName"),
		Zone:       q.Get("zoneCode"),
		BinCode:    q.Get("binCode"),
	}

	var err error
	if f.CategoryID, err = queryInt64(q.Get("categoryId"), "categoryId"); err != nil {
		return SummaryFilter{}, err
	}
	if f.MinQuantity, err = queryInt64Ptr(q.Get("minQuantity"), "minQuantity"); err != nil {
		return SummaryFilter{}, err
	}
	if f.MinPrice, err = queryInt64Ptr(q.Get("minPrice"), "minPrice"); err != nil {
		return SummaryFilter{}, err
	}
	if f.MaxPrice, err = queryInt64Ptr(q.Get("maxPrice"), "maxPrice"); err != nil {
		return SummaryFilter{}, err
	}

	page, err := queryInt64(q.Get("page"), "page")
	if err != nil {
		return SummaryFilter{}, err
	}
	perPage, err := queryInt64(q.Get("perPage"), "perPage")
	if err != nil {
		return SummaryFilter{}, err
	}
	f.Page = int(page)
	f.PerPage = int(perPage)
	return f, nil
}

func queryInt64(raw, name string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

func queryInt64Ptr(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}
