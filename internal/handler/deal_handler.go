package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/service"
)

// DealHandler serves the current catalog snapshot and its derived views.
type DealHandler struct {
	service DealServiceInterface
}

// NewDealHandler creates a new deal handler
func NewDealHandler(svc DealServiceInterface) *DealHandler {
	return &DealHandler{service: svc}
}

// GetSnapshot godoc
// @Summary Current catalog snapshot
// @Description Every product of the last applied fetch, unfiltered
// @Tags deals
// @Produce json
// @Success 200 {object} model.Snapshot
// @Router /deals [get]
func (h *DealHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Snapshot())
}

// GetStatus godoc
// @Summary Catalog loading state
// @Tags deals
// @Produce json
// @Success 200 {object} service.Status
// @Router /deals/status [get]
func (h *DealHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Status())
}

// GetVisible godoc
// @Summary Filtered catalog
// @Description Products matching the active filters. Any filter query parameter replaces the active filters for this request only.
// @Tags deals
// @Produce json
// @Param stores query string false "Comma separated chains (Tesco,Lidl,...)"
// @Param categories query string false "Comma separated categories"
// @Param minPrice query number false "Minimum sale price in HUF"
// @Param maxPrice query number false "Maximum sale price in HUF"
// @Param minDiscount query int false "Minimum discount percentage"
// @Success 200 {array} model.Product
// @Failure 400 {object} ErrorResponse
// @Router /deals/visible [get]
func (h *DealHandler) GetVisible(w http.ResponseWriter, r *http.Request) {
	f, override, appErr := filtersFromQuery(r, h.service.Filters())
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	if !override {
		respondJSON(w, http.StatusOK, h.service.Visible())
		return
	}
	if err := f.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, service.ApplyFilters(h.service.Snapshot().Products, f))
}

// GetProduct godoc
// @Summary Get a product
// @Tags deals
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} ErrorResponse
// @Router /deals/{id} [get]
func (h *DealHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Product(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Refresh godoc
// @Summary Refetch the catalog
// @Description Manual refresh with the active search term and location. Does not count against the automatic refresh quota.
// @Tags deals
// @Produce json
// @Success 200 {object} model.Snapshot
// @Failure 409 {object} ErrorResponse "Superseded by a newer fetch"
// @Failure 502 {object} ErrorResponse
// @Router /deals/refresh [post]
func (h *DealHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Refresh(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type searchRequest struct {
	Term string `json:"term"`
}

// Search godoc
// @Summary Search the catalog
// @Description Sets the active search term and fetches. A blank term returns to the full catalog.
// @Tags deals
// @Accept json
// @Produce json
// @Param input body searchRequest true "Search term"
// @Success 200 {object} model.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /deals/search [post]
func (h *DealHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	snap, err := h.service.Search(r.Context(), req.Term)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetCategories godoc
// @Summary Categories in the current snapshot
// @Tags deals
// @Produce json
// @Success 200 {array} string
// @Router /categories [get]
func (h *DealHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Categories())
}

// GetStores godoc
// @Summary Supported chains
// @Tags deals
// @Produce json
// @Success 200 {array} string
// @Router /stores [get]
func (h *DealHandler) GetStores(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.AllStores())
}

// GetRefreshDecision godoc
// @Summary Automatic refresh state
// @Description Evaluates the refresh policy now without fetching
// @Tags deals
// @Produce json
// @Success 200 {object} service.RefreshDecision
// @Router /deals/refresh-policy [get]
func (h *DealHandler) GetRefreshDecision(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.RefreshDecision(r.Context()))
}

// filtersFromQuery overlays filter query parameters onto base. The bool
// reports whether any parameter was present.
func filtersFromQuery(r *http.Request, base service.Filters) (service.Filters, bool, *apperror.AppError) {
	q := r.URL.Query()
	f := base
	override := false

	if v := q.Get("stores"); v != "" {
		override = true
		f.Stores = []model.Store{}
		for _, name := range splitAndTrim(v, ",") {
			store, ok := model.ParseStore(name)
			if !ok {
				return f, true, apperror.ValidationError("stores", "unknown store: "+name)
			}
			f.Stores = append(f.Stores, store)
		}
	}
	if v := q.Get("categories"); v != "" {
		override = true
		f.Categories = splitAndTrim(v, ",")
	}
	if v := q.Get("minPrice"); v != "" {
		override = true
		d, err := parseDecimal(v)
		if err != nil {
			return f, true, apperror.ValidationError("minPrice", "invalid price")
		}
		f.MinPrice = d
	}
	if v := q.Get("maxPrice"); v != "" {
		override = true
		d, err := parseDecimal(v)
		if err != nil {
			return f, true, apperror.ValidationError("maxPrice", "invalid price")
		}
		f.MaxPrice = d
	}
	if v := q.Get("minDiscount"); v != "" {
		override = true
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, true, apperror.ValidationError("minDiscount", "invalid discount")
		}
		f.MinDiscount = n
	}
	return f, override, nil
}
