package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// RawProduct is a product as reported by an untrusted source, before
// validation. Prices and dates stay loosely typed.
type RawProduct struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Store              string          `json:"store"`
	Category           string          `json:"category"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	SalePrice          decimal.Decimal `json:"salePrice"`
	DiscountPercentage float64         `json:"discountPercentage"`
	ValidUntil         string          `json:"validUntil"`
	ImageURL           string          `json:"imageUrl"`
	Unit               string          `json:"unit"`
}

// RejectReason explains why Normalize dropped a product.
type RejectReason string

const (
	RejectMissingID     RejectReason = "missing id"
	RejectDuplicateID   RejectReason = "duplicate id"
	RejectUnknownStore  RejectReason = "unknown store"
	RejectMissingName   RejectReason = "missing name"
	RejectInvalidPrice  RejectReason = "invalid price"
	RejectInvalidExpiry RejectReason = "invalid validUntil"
)

// Rejection pairs a dropped product with its reason.
type Rejection struct {
	Product RawProduct
	Reason  RejectReason
}

// Normalize validates raw products and converts them into catalog products.
// Store names are matched case-insensitively, the discount is clamped to
// 0..100 and derived from the prices when missing, and ids are unique in the
// result (first occurrence wins).
func Normalize(raw []RawProduct) ([]model.Product, []Rejection) {
	out := make([]model.Product, 0, len(raw))
	var rejected []Rejection
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		p, reason := normalizeOne(r)
		if reason == "" {
			if _, dup := seen[p.ID]; dup {
				reason = RejectDuplicateID
			}
		}
		if reason != "" {
			rejected = append(rejected, Rejection{Product: r, Reason: reason})
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, rejected
}

func normalizeOne(r RawProduct) (model.Product, RejectReason) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return model.Product{}, RejectMissingID
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return model.Product{}, RejectMissingName
	}
	store, ok := model.ParseStore(r.Store)
	if !ok {
		return model.Product{}, RejectUnknownStore
	}
	if r.SalePrice.IsNegative() || r.OriginalPrice.IsNegative() {
		return model.Product{}, RejectInvalidPrice
	}
	validUntil, err := datetime.ParseDate(strings.TrimSpace(r.ValidUntil))
	if err != nil {
		return model.Product{}, RejectInvalidExpiry
	}

	original := r.OriginalPrice
	if original.IsZero() {
		original = r.SalePrice
	}

	return model.Product{
		ID:                 id,
		Name:               name,
		Store:              store,
		Category:           strings.TrimSpace(r.Category),
		OriginalPrice:      original,
		SalePrice:          r.SalePrice,
		DiscountPercentage: discountPercentage(r.DiscountPercentage, original, r.SalePrice),
		ValidUntil:         validUntil,
		ImageURL:           strings.TrimSpace(r.ImageURL),
		Unit:               strings.TrimSpace(r.Unit),
	}, ""
}

// discountPercentage returns the reported discount rounded and clamped, or
// the discount implied by the two prices when none was reported.
func discountPercentage(reported float64, original, sale decimal.Decimal) int {
	pct := int(decimal.NewFromFloat(reported).Round(0).IntPart())
	if pct <= 0 && original.IsPositive() && sale.LessThan(original) {
		pct = int(original.Sub(sale).Div(original).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
