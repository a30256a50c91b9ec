package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akciovadasz/backend/internal/config"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/repository"
	"github.com/akciovadasz/backend/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		CatalogSource:     SourceAI,
		AIProvider:        "gemini",
		GeminiAPIKey:      "test-key",
		GeminiModel:       "gemini-2.5-flash",
		GeminiBaseURL:     "http://127.0.0.1:0",
		OpenAIModel:       "gpt-4o-mini",
		OpenAIBaseURL:     "http://127.0.0.1:0",
		FetchTimeout:      time.Second,
		RefreshStaleAfter: 8 * time.Hour,
		RefreshDailyLimit: 3,
		Timezone:          "Europe/Budapest",
		DiffIdentity:      "id",
		PrefsBackend:      repository.BackendMemory,
	}
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(c *config.Config)
		wantName string
		wantErr  bool
	}{
		{"gemini", func(c *config.Config) {}, "gemini:gemini-2.5-flash", false},
		{"openai", func(c *config.Config) { c.AIProvider = "OpenAI"; c.OpenAIAPIKey = "sk-test" }, "openai:gpt-4o-mini", false},
		{"gemini without key", func(c *config.Config) { c.GeminiAPIKey = "" }, "", true},
		{"openai without key", func(c *config.Config) { c.AIProvider = "openai" }, "", true},
		{"unknown provider", func(c *config.Config) { c.AIProvider = "claude" }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tt.mutate(cfg)

			gen, err := NewGenerator(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gen.Name())
		})
	}
}

func TestNew_AICatalog(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "gemini:gemini-2.5-flash", a.Fetcher.Source())
	assert.Nil(t, a.Flyers)
	assert.Nil(t, a.ScraperHealth())
	assert.Equal(t, "Europe/Budapest", a.Location.String())
	assert.Equal(t, []string{"log"}, a.Notifications.SenderNames())
}

func TestNew_AICatalogNeedsKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.GeminiAPIKey = ""

	_, err := New(context.Background(), cfg, nil, Options{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNew_FlyerCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flyers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - store: lidl
    kind: html
    url: https://www.lidl.example/akciok
    selectors:
      item: .product
      name: .title
      sale_price: .price
`), 0o600))

	cfg := testConfig()
	cfg.CatalogSource = SourceFlyers
	cfg.FlyerSourcesFile = path
	cfg.GeminiAPIKey = ""

	a, err := New(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Flyers)
	assert.Equal(t, "flyers", a.Fetcher.Source())
	assert.Equal(t, 1, a.Flyers.StoreCount())
	assert.NotNil(t, a.ScraperHealth())

	// Without an AI key the assistant is off but the catalog still works.
	_, err = a.Deals.Ask(context.Background(), "tej")
	assert.Error(t, err)
}

func TestNew_UnknownSource(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.CatalogSource = "newspaper"

	_, err := New(context.Background(), cfg, nil, Options{})
	assert.ErrorContains(t, err, "unknown catalog source")
}

type fixedFetcher []model.Product

func (f fixedFetcher) FetchDeals(context.Context, model.FetchQuery) ([]model.Product, error) {
	return f, nil
}

func (f fixedFetcher) Source() string { return "fixed" }

func TestNew_Overrides(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.DefaultLatitude, cfg.DefaultLongitude = 47.4979, 19.0402

	a, err := New(context.Background(), cfg, nil, Options{
		Store:   store,
		Fetcher: fixedFetcher{{ID: "1", Name: "Kenyér", Store: model.StoreSpar}},
		Senders: []service.Sender{service.NewLogSender(nil)},
		Now:     func() time.Time { return now },
	})
	require.NoError(t, err)

	snap, err := a.Deals.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", snap.Source)
	assert.Equal(t, now, snap.FetchedAt)

	_, err = a.Deals.ToggleFavorite(context.Background(), "1")
	require.NoError(t, err)
	raw, err := store.Get(context.Background(), "akciovadasz_favorites")
	require.NoError(t, err)
	assert.JSONEq(t, `["1"]`, string(raw))

	// The injected store is owned by the caller.
	require.NoError(t, a.Close())
	_, err = store.Get(context.Background(), "akciovadasz_favorites")
	assert.NoError(t, err)
}
