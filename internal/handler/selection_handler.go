package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/service"
)

// SelectionHandler serves filters, favorites and the comparison list.
type SelectionHandler struct {
	service DealServiceInterface
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(svc DealServiceInterface) *SelectionHandler {
	return &SelectionHandler{service: svc}
}

// GetFilters godoc
// @Summary Active filters
// @Tags filters
// @Produce json
// @Success 200 {object} service.Filters
// @Router /filters [get]
func (h *SelectionHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Filters())
}

// SetFilters godoc
// @Summary Replace the active filters
// @Tags filters
// @Accept json
// @Produce json
// @Param input body service.Filters true "Filters"
// @Success 200 {object} service.Filters
// @Failure 400 {object} ErrorResponse
// @Router /filters [put]
func (h *SelectionHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	f := service.DefaultFilters()
	if appErr := decodeJSON(r, &f); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	saved, err := h.service.SetFilters(f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// ResetFilters godoc
// @Summary Restore the default filters
// @Tags filters
// @Produce json
// @Success 200 {object} service.Filters
// @Router /filters [delete]
func (h *SelectionHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.ResetFilters())
}

// SelectionResponse lists the selected ids and the products among them
// present in the current snapshot.
type SelectionResponse struct {
	IDs      []string        `json:"ids"`
	Products []model.Product `json:"products"`
}

// GetFavorites godoc
// @Summary Favorites
// @Tags favorites
// @Produce json
// @Success 200 {object} SelectionResponse
// @Router /favorites [get]
func (h *SelectionHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondJSON(w, http.StatusOK, SelectionResponse{
		IDs:      h.service.FavoriteIDs(ctx),
		Products: h.service.FavoriteProducts(ctx),
	})
}

// ToggleFavorite godoc
// @Summary Toggle a favorite
// @Description promptPermission is true when a favorite was added while notification permission is still undecided
// @Tags favorites
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.FavoriteToggle
// @Failure 400 {object} ErrorResponse
// @Router /favorites/{id}/toggle [post]
func (h *SelectionHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetComparison godoc
// @Summary Comparison list
// @Description Compared products in the order they were added
// @Tags comparison
// @Produce json
// @Success 200 {object} SelectionResponse
// @Router /comparison [get]
func (h *SelectionHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondJSON(w, http.StatusOK, SelectionResponse{
		IDs:      h.service.ComparisonIDs(ctx),
		Products: h.service.ComparedProducts(ctx),
	})
}

// ToggleComparison godoc
// @Summary Toggle a compared product
// @Tags comparison
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.ComparisonToggle
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Comparison list is full"
// @Router /comparison/{id}/toggle [post]
func (h *SelectionHandler) ToggleComparison(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ToggleComparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ClearComparison godoc
// @Summary Empty the comparison list
// @Tags comparison
// @Success 204
// @Router /comparison [delete]
func (h *SelectionHandler) ClearComparison(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearComparison(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
