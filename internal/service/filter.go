package service

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
)

// MaxComparison is the capacity of the comparison list.
const MaxComparison = 4

// Filters narrows the visible catalog. Empty Stores or Categories match
// everything.
type Filters struct {
	Stores      []model.Store   `json:"stores"`
	Categories  []string        `json:"categories"`
	MinPrice    decimal.Decimal `json:"minPrice"`
	MaxPrice    decimal.Decimal `json:"maxPrice"`
	MinDiscount int             `json:"minDiscount"`
}

// DefaultFilters returns the filters a fresh session starts with.
func DefaultFilters() Filters {
	return Filters{
		Stores:      []model.Store{},
		Categories:  []string{},
		MinPrice:    decimal.Zero,
		MaxPrice:    decimal.NewFromInt(100000),
		MinDiscount: 0,
	}
}

// Validate checks the filter bounds.
func (f Filters) Validate() error {
	if f.MinPrice.IsNegative() {
		return apperror.ValidationError("minPrice", "must not be negative")
	}
	if f.MinPrice.GreaterThan(f.MaxPrice) {
		return apperror.ValidationError("maxPrice", "must not be lower than minPrice")
	}
	if f.MinDiscount < 0 || f.MinDiscount > 100 {
		return apperror.ValidationError("minDiscount", "must be between 0 and 100")
	}
	for _, s := range f.Stores {
		if !s.IsValid() {
			return apperror.ValidationError("stores", "unknown store: "+string(s))
		}
	}
	return nil
}

// clone returns a copy that shares no slices with f.
func (f Filters) clone() Filters {
	out := f
	out.Stores = append([]model.Store{}, f.Stores...)
	out.Categories = append([]string{}, f.Categories...)
	return out
}

// Matches reports whether p passes every filter dimension.
func (f Filters) Matches(p model.Product) bool {
	if len(f.Stores) > 0 && !slices.Contains(f.Stores, p.Store) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
		return false
	}
	if p.SalePrice.LessThan(f.MinPrice) || p.SalePrice.GreaterThan(f.MaxPrice) {
		return false
	}
	return p.DiscountPercentage >= f.MinDiscount
}

// ApplyFilters returns the products passing f, in input order. The input
// slice is not modified.
func ApplyFilters(products []model.Product, f Filters) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// DistinctCategories returns the sorted set of categories present.
func DistinctCategories(products []model.Product) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// SelectByIDs returns the products whose id is in ids, in snapshot order.
func SelectByIDs(products []model.Product, ids []string) []model.Product {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := []model.Product{}
	for _, p := range products {
		if _, ok := set[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ComparedProducts resolves the comparison ids in the order they were added.
// Ids missing from the snapshot are skipped.
func ComparedProducts(products []model.Product, ids []string) []model.Product {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// toggleID adds id when absent and removes it when present.
func toggleID(ids []string, id string) ([]string, bool) {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1), false
	}
	return append(slices.Clone(ids), id), true
}
