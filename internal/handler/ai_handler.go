package handler

import (
	"net/http"
	"strings"

	"github.com/akciovadasz/backend/internal/apperror"
)

// AIHandler serves search suggestions and the shopping assistant.
type AIHandler struct {
	service DealServiceInterface
}

func NewAIHandler(svc DealServiceInterface) *AIHandler {
	return &AIHandler{service: svc}
}

// Suggest godoc
// @Summary Search suggestions
// @Description Up to five suggested search terms. Queries shorter than two characters return an empty list.
// @Tags ai
// @Produce json
// @Param q query string true "Partial search term"
// @Success 200 {array} string
// @Router /suggestions [get]
func (h *AIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Suggest(r.Context(), r.URL.Query().Get("q")))
}

type askRequest struct {
	Query string `json:"query"`
}

// Ask godoc
// @Summary AI shopping assistant
// @Description Answers a shopping question about the current catalog and lists the products it refers to
// @Tags ai
// @Accept json
// @Produce json
// @Param input body askRequest true "Question"
// @Success 200 {object} service.AssistantAnswer
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /assistant [post]
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondAppError(w, apperror.ValidationError("query", "query is required"))
		return
	}

	answer, err := h.service.Ask(r.Context(), query)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, answer)
}
