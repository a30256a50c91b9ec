package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/scheduler"
	"github.com/akciovadasz/backend/internal/scraper"
	"github.com/akciovadasz/backend/internal/service"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// MockDealService implements DealServiceInterface for testing
type MockDealService struct {
	mock.Mock
}

func (m *MockDealService) Snapshot() model.Snapshot {
	return m.Called().Get(0).(model.Snapshot)
}

func (m *MockDealService) Status() service.Status {
	return m.Called().Get(0).(service.Status)
}

func (m *MockDealService) Visible() []model.Product {
	return m.Called().Get(0).([]model.Product)
}

func (m *MockDealService) Categories() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockDealService) Product(id string) (model.Product, error) {
	args := m.Called(id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockDealService) Refresh(ctx context.Context) (model.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Snapshot), args.Error(1)
}

func (m *MockDealService) Search(ctx context.Context, term string) (model.Snapshot, error) {
	args := m.Called(ctx, term)
	return args.Get(0).(model.Snapshot), args.Error(1)
}

func (m *MockDealService) RefreshDecision(ctx context.Context) service.RefreshDecision {
	return m.Called(ctx).Get(0).(service.RefreshDecision)
}

func (m *MockDealService) Filters() service.Filters {
	return m.Called().Get(0).(service.Filters)
}

func (m *MockDealService) SetFilters(f service.Filters) (service.Filters, error) {
	args := m.Called(f)
	return args.Get(0).(service.Filters), args.Error(1)
}

func (m *MockDealService) ResetFilters() service.Filters {
	return m.Called().Get(0).(service.Filters)
}

func (m *MockDealService) FavoriteIDs(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

func (m *MockDealService) FavoriteProducts(ctx context.Context) []model.Product {
	return m.Called(ctx).Get(0).([]model.Product)
}

func (m *MockDealService) ToggleFavorite(ctx context.Context, id string) (service.FavoriteToggle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.FavoriteToggle), args.Error(1)
}

func (m *MockDealService) ComparisonIDs(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

func (m *MockDealService) ComparedProducts(ctx context.Context) []model.Product {
	return m.Called(ctx).Get(0).([]model.Product)
}

func (m *MockDealService) ToggleComparison(ctx context.Context, id string) (service.ComparisonToggle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.ComparisonToggle), args.Error(1)
}

func (m *MockDealService) ClearComparison(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDealService) ReportLocation(report service.LocationReport) (service.LocationNotice, error) {
	args := m.Called(report)
	return args.Get(0).(service.LocationNotice), args.Error(1)
}

func (m *MockDealService) Suggest(ctx context.Context, query string) []string {
	return m.Called(ctx, query).Get(0).([]string)
}

func (m *MockDealService) Ask(ctx context.Context, query string) (*service.AssistantAnswer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AssistantAnswer), args.Error(1)
}

func (m *MockDealService) ExpiryLedger(ctx context.Context) model.NotificationLedger {
	return m.Called(ctx).Get(0).(model.NotificationLedger)
}

func (m *MockDealService) ClearExpiryLedger(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockNotificationService implements NotificationServiceInterface for testing
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Permission(ctx context.Context) model.Permission {
	return m.Called(ctx).Get(0).(model.Permission)
}

func (m *MockNotificationService) SetPermission(ctx context.Context, value string) (model.Permission, error) {
	args := m.Called(ctx, value)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (m *MockNotificationService) SenderNames() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockNotificationService) PushPublicKey() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockNotificationService) Subscribe(ctx context.Context, sub model.PushSubscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockNotificationService) Unsubscribe(ctx context.Context, endpoint string) error {
	return m.Called(ctx, endpoint).Error(0)
}

// MockScheduler implements SchedulerInterface for testing
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Status() scheduler.Status {
	return m.Called().Get(0).(scheduler.Status)
}

func (m *MockScheduler) RunNow() {
	m.Called()
}

type stubScraperHealth scraper.HealthStatus

func (s stubScraperHealth) GetHealthStatus() scraper.HealthStatus {
	return scraper.HealthStatus(s)
}

func testProduct(id string, store model.Store, category string, sale int64, discount int) model.Product {
	return model.Product{
		ID:                 id,
		Name:               "Termék " + id,
		Store:              store,
		Category:           category,
		OriginalPrice:      decimal.NewFromInt(sale * 2),
		SalePrice:          decimal.NewFromInt(sale),
		DiscountPercentage: discount,
		ValidUntil:         datetime.NewDate(2025, 3, 15),
		Unit:               "db",
	}
}

// newTestRouter mounts every handler on a chi router, the way cmd/api does.
func newTestRouter(deals DealServiceInterface, notifications NotificationServiceInterface, sched SchedulerInterface, scrapers ScraperHealthInterface) http.Handler {
	r := chi.NewRouter()
	Handlers{
		Deal:      NewDealHandler(deals),
		Selection: NewSelectionHandler(deals),
		Push:      NewPushHandler(notifications, deals),
		AI:        NewAIHandler(deals),
		Location:  NewLocationHandler(deals),
		Health:    NewHealthHandler(deals, sched, scrapers),
	}.Register(r)
	return r
}

func doRequest(h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
