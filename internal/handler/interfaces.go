package handler

import (
	"context"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/scheduler"
	"github.com/akciovadasz/backend/internal/scraper"
	"github.com/akciovadasz/backend/internal/service"
)

// DealServiceInterface for handler testing
type DealServiceInterface interface {
	Snapshot() model.Snapshot
	Status() service.Status
	Visible() []model.Product
	Categories() []string
	Product(id string) (model.Product, error)
	Refresh(ctx context.Context) (model.Snapshot, error)
	Search(ctx context.Context, term string) (model.Snapshot, error)
	RefreshDecision(ctx context.Context) service.RefreshDecision

	Filters() service.Filters
	SetFilters(f service.Filters) (service.Filters, error)
	ResetFilters() service.Filters

	FavoriteIDs(ctx context.Context) []string
	FavoriteProducts(ctx context.Context) []model.Product
	ToggleFavorite(ctx context.Context, id string) (service.FavoriteToggle, error)
	ComparisonIDs(ctx context.Context) []string
	ComparedProducts(ctx context.Context) []model.Product
	ToggleComparison(ctx context.Context, id string) (service.ComparisonToggle, error)
	ClearComparison(ctx context.Context) error

	ReportLocation(report service.LocationReport) (service.LocationNotice, error)

	Suggest(ctx context.Context, query string) []string
	Ask(ctx context.Context, query string) (*service.AssistantAnswer, error)

	ExpiryLedger(ctx context.Context) model.NotificationLedger
	ClearExpiryLedger(ctx context.Context) error
}

// NotificationServiceInterface for handler testing
type NotificationServiceInterface interface {
	Permission(ctx context.Context) model.Permission
	SetPermission(ctx context.Context, value string) (model.Permission, error)
	SenderNames() []string
	PushPublicKey() (string, error)
	Subscribe(ctx context.Context, sub model.PushSubscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// SchedulerInterface is the part of the refresh scheduler the API exposes.
type SchedulerInterface interface {
	Status() scheduler.Status
	RunNow()
}

// ScraperHealthInterface reports flyer scraper health.
type ScraperHealthInterface interface {
	GetHealthStatus() scraper.HealthStatus
}
