package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/pkg/datetime"
)

// Store is one of the supported Hungarian retail chains.
type Store string

const (
	StoreTesco  Store = "Tesco"
	StoreAuchan Store = "Auchan"
	StoreLidl   Store = "Lidl"
	StoreAldi   Store = "Aldi"
	StoreSpar   Store = "Spar"
	StorePenny  Store = "Penny"
)

// AllStores returns every supported chain in display order.
func AllStores() []Store {
	return []Store{StoreTesco, StoreAuchan, StoreLidl, StoreAldi, StoreSpar, StorePenny}
}

// IsValid reports whether s is a supported chain.
func (s Store) IsValid() bool {
	_, ok := ParseStore(string(s))
	return ok
}

// ParseStore matches a chain name case-insensitively.
func ParseStore(name string) (Store, bool) {
	name = strings.TrimSpace(name)
	for _, s := range AllStores() {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

// Categories is the fixed category vocabulary offered to catalog generators.
var Categories = []string{
	"Zöldség & Gyümölcs",
	"Pékáru",
	"Tejtermék & Tojás",
	"Hús & Hal",
	"Italok",
	"Alapvető élelmiszerek",
	"Háztartási cikkek",
	"Szépségápolás",
}

// Product is one promotional item of a fetched catalog.
type Product struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Store              Store           `json:"store"`
	Category           string          `json:"category"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	SalePrice          decimal.Decimal `json:"salePrice"`
	DiscountPercentage int             `json:"discountPercentage"`
	ValidUntil         datetime.Date   `json:"validUntil"`
	ImageURL           string          `json:"imageUrl"`
	Unit               string          `json:"unit"` // e.g. kg, l, db
}

// Fingerprint identifies a product by content rather than by id:
// normalized name, store and category.
func (p Product) Fingerprint() string {
	return strings.Join([]string{
		normalizeKey(p.Name),
		normalizeKey(string(p.Store)),
		normalizeKey(p.Category),
	}, "|")
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Location is a best-effort coordinate pair reported by the client.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FetchQuery carries the optional inputs of a catalog fetch.
type FetchQuery struct {
	SearchTerm string
	Location   *Location
}

// Snapshot is one full fetched generation of the catalog.
type Snapshot struct {
	Products   []Product `json:"products"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Generation uint64    `json:"generation"`
	SearchTerm string    `json:"searchTerm,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// Find returns the product with the given id.
func (s Snapshot) Find(id string) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
