package handler

import (
	"net/http"

	"github.com/akciovadasz/backend/internal/service"
)

type LocationHandler struct {
	service DealServiceInterface
}

func NewLocationHandler(svc DealServiceInterface) *LocationHandler {
	return &LocationHandler{service: svc}
}

// Report godoc
// @Summary Report the client's location
// @Description Coordinates bias later fetches toward nearby stores. An error code clears them and returns the notice to show; it is not an error response.
// @Tags location
// @Accept json
// @Produce json
// @Param input body service.LocationReport true "Coordinates or error code"
// @Success 200 {object} service.LocationNotice
// @Failure 400 {object} ErrorResponse
// @Router /location [post]
func (h *LocationHandler) Report(w http.ResponseWriter, r *http.Request) {
	var report service.LocationReport
	if appErr := decodeJSON(r, &report); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	notice, err := h.service.ReportLocation(report)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, notice)
}
