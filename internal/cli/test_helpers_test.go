package cli

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/config"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/repository"
	"github.com/akciovadasz/backend/internal/service"
	"github.com/akciovadasz/backend/pkg/datetime"
)

type stubFetcher struct {
	products []model.Product
	err      error
	calls    atomic.Int32
}

func (f *stubFetcher) FetchDeals(_ context.Context, q model.FetchQuery) ([]model.Product, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *stubFetcher) Source() string { return "stub" }

func testProduct(id, name string, store model.Store, category string, sale int64, discount int) model.Product {
	return model.Product{
		ID:                 id,
		Name:               name,
		Store:              store,
		Category:           category,
		SalePrice:          decimal.NewFromInt(sale),
		OriginalPrice:      decimal.NewFromInt(sale * 100 / int64(100-discount)),
		DiscountPercentage: discount,
		ValidUntil:         datetime.NewDate(2025, time.March, 16),
		Unit:               "db",
	}
}

// testEnv runs commands against a shared in-memory store, so state survives
// between invocations like it does with the bolt file.
type testEnv struct {
	env     *environment
	out     *bytes.Buffer
	store   *repository.MemoryStore
	fetcher *stubFetcher
	now     time.Time
}

func newTestEnv(t *testing.T, products ...model.Product) *testEnv {
	t.Helper()

	te := &testEnv{
		out:     &bytes.Buffer{},
		store:   repository.NewMemoryStore(),
		fetcher: &stubFetcher{products: products},
		now:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	te.env = &environment{
		out: te.out,
		open: func(ctx context.Context, cfg *config.Config, _ bool) (*app.App, error) {
			cfg.Timezone = "Europe/Budapest"
			cfg.RefreshStaleAfter = 8 * time.Hour
			cfg.RefreshDailyLimit = 3
			cfg.FetchTimeout = time.Second
			return app.New(ctx, cfg, nil, app.Options{
				Store:   te.store,
				Fetcher: te.fetcher,
				Senders: []service.Sender{service.NewLogSender(nil)},
				Now:     func() time.Time { return te.now },
			})
		},
	}
	return te
}

// run executes args and returns the output of this invocation only.
func (te *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	te.out.Reset()
	err := run("test", args, te.env)
	return te.out.String(), err
}

func (te *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := te.run(t, args...)
	require.NoError(t, err)
	return out
}

var errUpstream = errors.New("upstream unavailable")
