package service

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/datetime"
)

func product(id string, store model.Store, category string, sale int64, discount int) model.Product {
	return model.Product{
		ID:                 id,
		Name:               "Termék " + id,
		Store:              store,
		Category:           category,
		OriginalPrice:      decimal.NewFromInt(sale * 2),
		SalePrice:          decimal.NewFromInt(sale),
		DiscountPercentage: discount,
		ValidUntil:         datetime.MustParseDate("2025-03-20"),
		Unit:               "db",
	}
}

func ids(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		product("1", model.StoreLidl, "Pékáru", 39, 20),
		product("2", model.StoreAldi, "Pékáru", 450, 35),
		product("3", model.StoreLidl, "Italok", 899, 50),
		product("4", model.StoreTesco, "Hús & Hal", 2499, 10),
	}

	tests := []struct {
		name    string
		filters func(f *Filters)
		want    []string
	}{
		{"defaults match everything", func(*Filters) {}, []string{"1", "2", "3", "4"}},
		{"any of several stores", func(f *Filters) { f.Stores = []model.Store{model.StoreLidl, model.StoreTesco} }, []string{"1", "3", "4"}},
		{"category", func(f *Filters) { f.Categories = []string{"Pékáru"} }, []string{"1", "2"}},
		{"store and category", func(f *Filters) {
			f.Stores = []model.Store{model.StoreLidl}
			f.Categories = []string{"Pékáru"}
		}, []string{"1"}},
		{"inclusive price range", func(f *Filters) {
			f.MinPrice = decimal.NewFromInt(450)
			f.MaxPrice = decimal.NewFromInt(899)
		}, []string{"2", "3"}},
		{"minimum discount is inclusive", func(f *Filters) { f.MinDiscount = 35 }, []string{"2", "3"}},
		{"nothing matches", func(f *Filters) { f.Categories = []string{"Szépségápolás"} }, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilters()
			tt.filters(&f)
			assert.Equal(t, tt.want, ids(ApplyFilters(products, f)))
		})
	}
}

func TestApplyFilters_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		product("1", model.StoreLidl, "Pékáru", 39, 20),
		product("2", model.StoreAldi, "Pékáru", 450, 35),
	}
	before := ids(products)

	f := DefaultFilters()
	f.Stores = []model.Store{model.StoreAldi}
	_ = ApplyFilters(products, f)

	assert.Equal(t, before, ids(products))
}

// A product is visible iff it satisfies every active dimension.
func TestApplyFilters_Conjunction(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(20250310))
	stores := model.AllStores()
	categories := model.Categories

	pickStores := func() []model.Store {
		out := []model.Store{}
		for _, s := range stores {
			if rng.Intn(3) == 0 {
				out = append(out, s)
			}
		}
		return out
	}
	pickCategories := func() []string {
		out := []string{}
		for _, c := range categories {
			if rng.Intn(3) == 0 {
				out = append(out, c)
			}
		}
		return out
	}
	contains := func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}

	for round := 0; round < 200; round++ {
		products := make([]model.Product, rng.Intn(30))
		for i := range products {
			products[i] = product(
				string(rune('a'+i)),
				stores[rng.Intn(len(stores))],
				categories[rng.Intn(len(categories))],
				int64(rng.Intn(5000)),
				rng.Intn(101),
			)
		}

		minPrice := int64(rng.Intn(3000))
		f := Filters{
			Stores:      pickStores(),
			Categories:  pickCategories(),
			MinPrice:    decimal.NewFromInt(minPrice),
			MaxPrice:    decimal.NewFromInt(minPrice + int64(rng.Intn(3000))),
			MinDiscount: rng.Intn(101),
		}

		visible := ids(ApplyFilters(products, f))

		for _, p := range products {
			storeOK := len(f.Stores) == 0
			for _, s := range f.Stores {
				storeOK = storeOK || s == p.Store
			}
			categoryOK := len(f.Categories) == 0 || contains(f.Categories, p.Category)
			priceOK := p.SalePrice.GreaterThanOrEqual(f.MinPrice) && p.SalePrice.LessThanOrEqual(f.MaxPrice)
			discountOK := p.DiscountPercentage >= f.MinDiscount

			want := storeOK && categoryOK && priceOK && discountOK
			require.Equal(t, want, contains(visible, p.ID), "round %d product %+v filters %+v", round, p, f)
		}
	}
}

func TestResetFilters_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newTestDealService(t, &stubFetcher{}, nil)

	_, err := svc.SetFilters(Filters{
		Stores:      []model.Store{model.StoreSpar},
		Categories:  []string{"Italok"},
		MinPrice:    decimal.NewFromInt(100),
		MaxPrice:    decimal.NewFromInt(200),
		MinDiscount: 30,
	})
	require.NoError(t, err)

	once := svc.ResetFilters()
	twice := svc.ResetFilters()

	assert.Equal(t, DefaultFilters(), once)
	assert.Equal(t, once, twice)
	assert.Equal(t, DefaultFilters(), svc.Filters())
}

func TestFilters_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(f *Filters)
		field  string
	}{
		{"negative min price", func(f *Filters) { f.MinPrice = decimal.NewFromInt(-1) }, "minPrice"},
		{"min above max", func(f *Filters) {
			f.MinPrice = decimal.NewFromInt(500)
			f.MaxPrice = decimal.NewFromInt(100)
		}, "maxPrice"},
		{"discount above 100", func(f *Filters) { f.MinDiscount = 101 }, "minDiscount"},
		{"negative discount", func(f *Filters) { f.MinDiscount = -5 }, "minDiscount"},
		{"unknown store", func(f *Filters) { f.Stores = []model.Store{"Metro"} }, "stores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilters()
			tt.modify(&f)

			err := f.Validate()

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	assert.NoError(t, DefaultFilters().Validate())
}

func TestDistinctCategories(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		product("1", model.StoreLidl, "Pékáru", 39, 0),
		product("2", model.StoreLidl, "Italok", 39, 0),
		product("3", model.StoreLidl, "Pékáru", 39, 0),
		product("4", model.StoreLidl, "Hús & Hal", 39, 0),
	}

	assert.Equal(t, []string{"Hús & Hal", "Italok", "Pékáru"}, DistinctCategories(products))
	assert.Equal(t, []string{}, DistinctCategories(nil))
}

func TestSelectionHelpers(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		product("a", model.StoreLidl, "Pékáru", 39, 0),
		product("b", model.StoreAldi, "Pékáru", 39, 0),
		product("c", model.StoreSpar, "Pékáru", 39, 0),
	}

	// favorites follow snapshot order
	assert.Equal(t, []string{"a", "c"}, ids(SelectByIDs(products, []string{"c", "missing", "a"})))
	// comparison follows insertion order
	assert.Equal(t, []string{"c", "a"}, ids(ComparedProducts(products, []string{"c", "missing", "a"})))
	assert.Empty(t, SelectByIDs(products, nil))
}
