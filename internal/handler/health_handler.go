package handler

import (
	"net/http"

	"github.com/akciovadasz/backend/internal/service"
)

// HealthHandler reports process, scheduler and scraper health.
type HealthHandler struct {
	deals     DealServiceInterface
	scheduler SchedulerInterface
	scraper   ScraperHealthInterface
}

// NewHealthHandler creates a new health handler. scraper may be nil when the
// catalog does not come from flyers.
func NewHealthHandler(deals DealServiceInterface, sched SchedulerInterface, scraper ScraperHealthInterface) *HealthHandler {
	return &HealthHandler{deals: deals, scheduler: sched, scraper: scraper}
}

type healthResponse struct {
	Status  string         `json:"status"`
	Catalog service.Status `json:"catalog"`
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Catalog: h.deals.Status()})
}

// GetScheduler godoc
// @Summary Refresh scheduler status
// @Description Next and last tick plus the last refresh decision
// @Tags health
// @Produce json
// @Success 200 {object} scheduler.Status
// @Router /scheduler [get]
func (h *HealthHandler) GetScheduler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.Status())
}

// RunScheduler godoc
// @Summary Run one refresh tick now
// @Description The tick still obeys the staleness and quota rules
// @Tags health
// @Produce json
// @Success 202 {object} map[string]string
// @Router /scheduler/run [post]
func (h *HealthHandler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	h.scheduler.RunNow()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// GetScraperHealth godoc
// @Summary Get scraper health status
// @Description Per-store result of the last flyer scrape
// @Tags health
// @Produce json
// @Success 200 {object} scraper.HealthStatus
// @Failure 404 {object} ErrorResponse
// @Router /scraper/health [get]
func (h *HealthHandler) GetScraperHealth(w http.ResponseWriter, r *http.Request) {
	if h.scraper == nil {
		respondError(w, http.StatusNotFound, "flyer scraper is not the catalog source")
		return
	}
	respondJSON(w, http.StatusOK, h.scraper.GetHealthStatus())
}
