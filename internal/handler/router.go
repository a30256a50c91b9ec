package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/akciovadasz/backend/internal/logger"
)

// Handlers groups every API handler for route registration.
type Handlers struct {
	Deal      *DealHandler
	Selection *SelectionHandler
	Push      *PushHandler
	AI        *AIHandler
	Location  *LocationHandler
	Health    *HealthHandler
}

// Register mounts the API routes under /api.
func (h Handlers) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/scheduler", h.Health.GetScheduler)
		r.Post("/scheduler/run", h.Health.RunScheduler)
		r.Get("/scraper/health", h.Health.GetScraperHealth)

		// Catalog
		r.Get("/deals", h.Deal.GetSnapshot)
		r.Get("/deals/status", h.Deal.GetStatus)
		r.Get("/deals/visible", h.Deal.GetVisible)
		r.Get("/deals/refresh-policy", h.Deal.GetRefreshDecision)
		r.Post("/deals/refresh", h.Deal.Refresh)
		r.Post("/deals/search", h.Deal.Search)
		r.Get("/deals/{id}", h.Deal.GetProduct)
		r.Get("/categories", h.Deal.GetCategories)
		r.Get("/stores", h.Deal.GetStores)

		// Filters
		r.Get("/filters", h.Selection.GetFilters)
		r.Put("/filters", h.Selection.SetFilters)
		r.Delete("/filters", h.Selection.ResetFilters)

		// Favorites and comparison
		r.Get("/favorites", h.Selection.GetFavorites)
		r.Post("/favorites/{id}/toggle", h.Selection.ToggleFavorite)
		r.Get("/comparison", h.Selection.GetComparison)
		r.Post("/comparison/{id}/toggle", h.Selection.ToggleComparison)
		r.Delete("/comparison", h.Selection.ClearComparison)

		// Location
		r.Post("/location", h.Location.Report)

		// Notifications
		r.Get("/notifications/permission", h.Push.GetPermission)
		r.Put("/notifications/permission", h.Push.SetPermission)
		r.Get("/notifications/vapid-public-key", h.Push.GetVAPIDPublicKey)
		r.Post("/notifications/subscribe", h.Push.Subscribe)
		r.Post("/notifications/unsubscribe", h.Push.Unsubscribe)
		r.Get("/notifications/ledger", h.Push.GetLedger)
		r.Delete("/notifications/ledger", h.Push.ClearLedger)

		// AI
		r.Get("/suggestions", h.AI.Suggest)
		r.Post("/assistant", h.AI.Ask)
	})
}

// RequestLogContext copies the chi request id into the logging context.
// Mount it after middleware.RequestID.
func RequestLogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
