package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akciovadasz/backend/internal/logger"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/repository"
	"github.com/akciovadasz/backend/internal/scheduler"
	"github.com/akciovadasz/backend/internal/service"
)

type staticFetcher []model.Product

func (f staticFetcher) FetchDeals(context.Context, model.FetchQuery) ([]model.Product, error) {
	return f, nil
}

func (f staticFetcher) Source() string { return "static" }

// The routes wired to the real services, backed by the in-memory store.
func TestRouter_ShopperFlow(t *testing.T) {
	t.Parallel()

	catalog := staticFetcher{
		testProduct("1", model.StoreLidl, "Pékáru", 39, 20),
		testProduct("2", model.StoreAldi, "Italok", 450, 35),
		testProduct("3", model.StoreTesco, "Italok", 1299, 10),
		testProduct("4", model.StoreSpar, "Hús & Hal", 2490, 25),
		testProduct("5", model.StorePenny, "Tejtermék & Tojás", 329, 40),
	}
	prefs := repository.NewPreferenceRepository(repository.NewMemoryStore(), nil)
	notifications := service.NewNotificationService(prefs, nil, service.NewLogSender(nil))
	deals := service.NewDealService(service.DealServiceConfig{FetchTimeout: time.Second}, catalog, prefs, notifications, nil)
	sched := scheduler.New(scheduler.DefaultConfig(), deals, nil)
	router := newTestRouter(deals, notifications, sched, nil)

	_, err := deals.Load(context.Background())
	require.NoError(t, err)

	rr := doRequest(router, http.MethodPut, "/api/filters", `{"categories":["Italok"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(router, http.MethodGet, "/api/deals/visible", nil)
	assert.Equal(t, []string{"2", "3"}, productIDs(t, rr.Body.Bytes()))

	for _, id := range []string{"1", "2", "3", "4"} {
		rr = doRequest(router, http.MethodPost, "/api/comparison/"+id+"/toggle", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr = doRequest(router, http.MethodPost, "/api/comparison/5/toggle", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(router, http.MethodGet, "/api/comparison", nil)
	var cmp SelectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmp))
	assert.Equal(t, []string{"1", "2", "3", "4"}, cmp.IDs)

	rr = doRequest(router, http.MethodPost, "/api/favorites/2/toggle", nil)
	assert.JSONEq(t, `{"productId":"2","favorite":true,"promptPermission":true}`, rr.Body.String())

	rr = doRequest(router, http.MethodPut, "/api/notifications/permission", `{"permission":"denied"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(router, http.MethodPost, "/api/favorites/5/toggle", nil)
	assert.JSONEq(t, `{"productId":"5","favorite":true,"promptPermission":false}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/api/scheduler", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"schedule":"0 * * * *"`)
}

func TestRequestLogContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogContext)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Enrich(r.Context(), base).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), "request_id=req-42")
}
